package cmd

import (
	"fmt"
	"os"

	"github.com/nyxlang/nyx/pkg/nyx"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a source file and report syntax errors",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		input, filename, err := readInput(args)
		if err != nil {
			return err
		}
		engine, err := nyx.New()
		if err != nil {
			return err
		}
		program, err := engine.Compile(input, filename)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: %d top-level statement(s), %d function(s)\n",
			filename, len(program.AST().Body), len(program.Module().Functions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
