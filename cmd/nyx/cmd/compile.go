package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/nyxlang/nyx/pkg/nyx"
	"github.com/spf13/cobra"
)

var compileOutput string

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a source file to a bytecode module (.nyxc)",
	Args:  cobra.ExactArgs(1),
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
		data, err := program.Serialize()
		if err != nil {
			return err
		}
		out := compileOutput
		if out == "" {
			out = strings.TrimSuffix(filename, ".js") + ".nyxc"
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output path (default: input with .nyxc extension)")
}
