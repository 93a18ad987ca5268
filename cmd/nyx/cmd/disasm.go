package cmd

import (
	"fmt"

	"github.com/nyxlang/nyx/pkg/nyx"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [file]",
	Short: "Compile a source file and print its bytecode listing",
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
		fmt.Print(program.Disassemble())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "disassemble inline code instead of reading from file")
}
