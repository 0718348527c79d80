// Command chartquery serves and runs bounded queries over the clinical chart.
package main

import (
	"os"

	"github.com/roach88/chartquery/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
