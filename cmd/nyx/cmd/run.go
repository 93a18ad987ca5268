package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nyxlang/nyx/internal/loader"
	"github.com/nyxlang/nyx/pkg/nyx"
	"github.com/spf13/cobra"
)

var (
	evalExpr   string
	asModule   bool
	printValue bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a script or module",
	Long: `Evaluate a JavaScript source file (or inline expression) to its
terminal value.

Examples:
  # Run a script file
  nyx run script.js

  # Evaluate an inline expression and print the result
  nyx run -p -e "let s=0;for(let i=1;i<=100;i++)s+=i;s"

  # Run a file as a module (enables import/export and top-level await)
  nyx run --module main.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().BoolVar(&asModule, "module", false, "evaluate as a module (import/export, top-level await)")
	runCmd.Flags().BoolVarP(&printValue, "print", "p", false, "print the completion value")
}

func runScript(_ *cobra.Command, args []string) error {
	input, filename, err := readInput(args)
	if err != nil {
		return err
	}

	engine, err := nyx.New(
		nyx.WithOutput(os.Stdout),
		nyx.WithModuleResolver(fileResolver(filepath.Dir(filename))),
	)
	if err != nil {
		return err
	}

	var result nyx.Value
	if asModule {
		result, err = engine.RunModule(input, filename)
	} else {
		result, err = engine.Run(input, filename)
	}
	if err != nil {
		return err
	}
	if printValue {
		s, serr := engine.ToString(result)
		if serr != nil {
			s = nyx.ToString(result)
		}
		fmt.Println(s)
	}
	return nil
}

func readInput(args []string) (input, filename string, err error) {
	if evalExpr != "" {
		return evalExpr, "<eval>", nil
	}
	if len(args) != 1 {
		return "", "", fmt.Errorf("either provide a file path or use -e flag for inline code")
	}
	filename = args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", "", fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return string(content), filename, nil
}

// fileResolver resolves import specifiers relative to the importing
// file's directory.
func fileResolver(baseDir string) loader.Resolver {
	return func(specifier, referrer string) (string, string, error) {
		dir := baseDir
		if referrer != "" && referrer != "<eval>" {
			dir = filepath.Dir(referrer)
		}
		resolved := filepath.Join(dir, specifier)
		content, err := os.ReadFile(resolved)
		if err != nil {
			return "", "", fmt.Errorf("cannot resolve module %q: %w", specifier, err)
		}
		return string(content), resolved, nil
	}
}
