package schema

import (
	_ "embed"
	"fmt"
	"regexp"
	"slices"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed registry.cue
var registrySource string

// identPattern mirrors #Ident in registry.cue.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table describes one whitelisted table.
//
// TimeColumn is empty when the table has no natural timestamp; range
// filters are then ignored and rows are ordered by FallbackOrderColumn.
type Table struct {
	Name                string
	Columns             []string
	TimeColumn          string
	FallbackOrderColumn string
}

// HasColumn reports whether name is one of the table's columns.
func (t Table) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// HasTimeColumn reports whether the table has a time dimension.
func (t Table) HasTimeColumn() bool {
	return t.TimeColumn != ""
}

// OrderColumn returns the column rows are sorted by.
func (t Table) OrderColumn() string {
	if t.TimeColumn != "" {
		return t.TimeColumn
	}
	return t.FallbackOrderColumn
}

// Validate checks the descriptor invariants: a plain-identifier name,
// at least one distinct plain-identifier column, and time/fallback columns
// that are members of Columns.
func (t Table) Validate() error {
	if !identPattern.MatchString(t.Name) {
		return &DescriptorError{Table: t.Name, Message: "table name is not a plain identifier"}
	}
	if len(t.Columns) == 0 {
		return &DescriptorError{Table: t.Name, Message: "at least one column is required"}
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if !identPattern.MatchString(col) {
			return &DescriptorError{Table: t.Name, Message: fmt.Sprintf("column %q is not a plain identifier", col)}
		}
		if seen[col] {
			return &DescriptorError{Table: t.Name, Message: fmt.Sprintf("duplicate column %q", col)}
		}
		seen[col] = true
	}

	if t.TimeColumn != "" && !seen[t.TimeColumn] {
		return &DescriptorError{Table: t.Name, Message: fmt.Sprintf("time column %q is not a column", t.TimeColumn)}
	}
	if t.FallbackOrderColumn == "" {
		return &DescriptorError{Table: t.Name, Message: "fallback order column is required"}
	}
	if !seen[t.FallbackOrderColumn] {
		return &DescriptorError{Table: t.Name, Message: fmt.Sprintf("fallback order column %q is not a column", t.FallbackOrderColumn)}
	}
	return nil
}

// Registry is an immutable set of table descriptors keyed by name.
// Safe for concurrent use: nothing mutates it after construction.
type Registry struct {
	tables map[string]Table
	names  []string
}

// NewRegistry builds a registry from explicit descriptors.
// Every descriptor is validated and names must be unique.
func NewRegistry(tables ...Table) (*Registry, error) {
	r := &Registry{
		tables: make(map[string]Table, len(tables)),
		names:  make([]string, 0, len(tables)),
	}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.tables[t.Name]; dup {
			return nil, &DescriptorError{Table: t.Name, Message: "duplicate table"}
		}
		t.Columns = slices.Clone(t.Columns)
		r.tables[t.Name] = t
		r.names = append(r.names, t.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Lookup returns the descriptor for name. Matching is case-sensitive.
// The returned Columns slice is a copy; callers may not alter the registry.
func (r *Registry) Lookup(name string) (Table, bool) {
	t, ok := r.tables[name]
	if !ok {
		return Table{}, false
	}
	t.Columns = slices.Clone(t.Columns)
	return t, true
}

// Names returns the registered table names in sorted order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Tables returns every descriptor, sorted by name.
func (r *Registry) Tables() []Table {
	out := make([]Table, 0, len(r.names))
	for _, name := range r.names {
		t, _ := r.Lookup(name)
		out = append(out, t)
	}
	return out
}

// tableDecl is the CUE shape of one entry in registry.cue.
type tableDecl struct {
	Name          string   `json:"name"`
	Columns       []string `json:"columns"`
	TimeColumn    string   `json:"time_column"`
	FallbackOrder string   `json:"fallback_order"`
}

// Load compiles a CUE registry document and builds a Registry from its
// `tables` list. The document must be concrete.
func Load(filename, src string) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return nil, &LoadError{Field: "tables", Message: "tables list is required", Pos: v.Pos()}
	}

	var decls []tableDecl
	if err := tablesVal.Decode(&decls); err != nil {
		return nil, formatCUEError(err)
	}

	tables := make([]Table, 0, len(decls))
	for _, d := range decls {
		tables = append(tables, Table{
			Name:                d.Name,
			Columns:             d.Columns,
			TimeColumn:          d.TimeColumn,
			FallbackOrderColumn: d.FallbackOrder,
		})
	}
	return NewRegistry(tables...)
}

// defaultRegistry is built once at process start from the embedded
// registry.cue and never mutated.
var defaultRegistry = mustLoadDefault()

func mustLoadDefault() *Registry {
	r, err := Load("registry.cue", registrySource)
	if err != nil {
		panic(fmt.Sprintf("schema: embedded registry is invalid: %v", err))
	}
	return r
}

// Default returns the process-wide clinical registry.
func Default() *Registry {
	return defaultRegistry
}

// DescriptorError reports a descriptor that violates the registry invariants.
type DescriptorError struct {
	Table   string
	Message string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("table %q: %s", e.Table, e.Message)
}

// LoadError reports a problem in the CUE registry document.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Field: "cue", Message: err.Error()}
	}

	// Report the first error, with its position when CUE has one
	first := errs[0]
	loadErr := &LoadError{Field: "cue", Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}
