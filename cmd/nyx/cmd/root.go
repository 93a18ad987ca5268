package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/nyxlang/nyx/internal/srcerr"
	"github.com/nyxlang/nyx/internal/vm"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "nyx",
	Short: "JavaScript engine core: compiler, bytecode VM, and module loader",
	Long: `nyx is a self-contained JavaScript execution engine core:
a bytecode compiler, a register/stack virtual machine with a tracing
garbage collector, generator/async coroutine machinery, and a module
loader.

It evaluates a source string to a terminal value; the surrounding
standard library is intentionally minimal.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// ExitCodeFor maps an error to the documented process exit codes:
// 1 for parse errors, 2 for uncaught runtime errors, 3 for internal
// failures.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var engineErr *srcerr.EngineError
	if errors.As(err, &engineErr) && engineErr.Kind == srcerr.SyntaxErrorKind {
		return 1
	}
	var thrown *vm.Thrown
	if errors.As(err, &thrown) {
		return 2
	}
	return 3
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))
}
