package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"

	"github.com/roach88/chartquery/internal/agent"
	"github.com/roach88/chartquery/internal/config"
)

// ChatOptions holds flags for the chat command.
type ChatOptions struct {
	*RootOptions

	// Model overrides the configured Azure OpenAI model (for testing).
	Model llms.Model
}

// NewChatCommand creates the chat command.
func NewChatCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChatOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the clinical assistant",
		Long: `Send messages to the clinical assistant. With an argument, send that one
message and print the reply. Without, read one message per line until EOF
or "exit".

Requires AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(opts, args, cmd)
		},
	}
	return cmd
}

func runChat(opts *ChatOptions, args []string, cmd *cobra.Command) error {
	model := opts.Model
	if model == nil {
		cfg, err := config.Load(opts.EnvFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
		model, err = newChatModel(cfg)
		if err != nil {
			return WrapExitError(ExitCommandError, "chat is not available", err)
		}
	}

	assistant := agent.New(model)
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		reply, err := assistant.Respond(cmd.Context(), args[0])
		if err != nil {
			return WrapExitError(ExitFailure, "chat failed", err)
		}
		fmt.Fprintln(out, reply)
		return nil
	}

	reader := newLineReader(cmd.InOrStdin(), out)
	defer reader.Close()

	for {
		line, err := reader.Prompt("> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read input", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		reader.AppendHistory(line)

		reply, err := assistant.Respond(cmd.Context(), line)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "ERROR: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply)
	}
}

// newChatModel builds the Azure OpenAI model from configuration.
func newChatModel(cfg *config.Config) (llms.Model, error) {
	if !cfg.OpenAI.Configured() {
		return nil, fmt.Errorf("%s and %s must be set", config.KeyOpenAIEndpoint, config.KeyOpenAIAPIKey)
	}
	return agent.NewAzureModel(agent.AzureConfig{
		Endpoint:   cfg.OpenAI.Endpoint,
		APIKey:     cfg.OpenAI.APIKey,
		APIVersion: cfg.OpenAI.APIVersion,
		Deployment: cfg.OpenAI.Deployment,
	})
}

// lineReader is the subset of *liner.State the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// newLineReader uses liner for line editing on the real stdin and a plain
// scanner for anything else.
func newLineReader(in io.Reader, out io.Writer) lineReader {
	if f, ok := in.(*os.File); ok && f == os.Stdin {
		state := liner.NewLiner()
		state.SetCtrlCAborts(true)
		return state
	}
	return &scanReader{scanner: bufio.NewScanner(in), out: out}
}

// scanReader reads lines from a non-terminal reader.
type scanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scanReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) AppendHistory(string) {}

func (r *scanReader) Close() error { return nil }
