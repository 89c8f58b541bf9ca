package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Urethramancer/scudsp/disassembler"
)

func main() {
	err := newRootCmd().Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var output string
	root := &cobra.Command{
		Use:   "dspdis [flags] image",
		Short: "Disassembler for SCU DSP program RAM images",
		Long: `Dspdis reads a raw big-endian DSP program image and prints source that
dspasm assembles back into the same words. Words that are not reached from
address 0, or that no instruction encodes to, are written as DW.
`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd.OutOrStdout(), args[0], output)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "dspdis: %v\n", err)
			}
			return err
		},
	}
	root.Flags().StringVarP(&output, "output", "o", "", "write the disassembly to this file instead of stdout")
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	return root
}

// run disassembles input to output, or to w when output is empty.
func run(w io.Writer, input, output string) error {
	code, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	text, err := disassembler.DisassembleBytes(code)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	if output == "" {
		_, err := io.WriteString(w, text)
		return err
	}
	if err := os.WriteFile(output, []byte(text), 0644); err != nil {
		return err
	}
	glog.V(1).Infof("disassembly of %d bytes written to %s", len(code), output)
	return nil
}
