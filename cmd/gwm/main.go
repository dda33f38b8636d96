// Command gwm watermarks graph datasets and measures the robustness of the
// mark against attacks.
package main

import (
	"os"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
