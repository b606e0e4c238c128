// Command vdt lives in cmd/vdt; this stub only points there.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Stderr))
}

func run(w io.Writer) int {
	fmt.Fprintln(w, "vdt: run the CLI with: go run ./cmd/vdt -isa <description.yaml>")
	return 2
}
