package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Urethramancer/scudsp/assembler"
)

var version = "0.1.0"

type config struct {
	output  string
	listing string
	symbols string
	strict  bool
	defines []string
	color   string
}

func main() {
	err := newRootCmd().Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config
	root := &cobra.Command{
		Use:   "dspasm [flags] source",
		Short: "Assembler for the Sega Saturn SCU DSP",
		Long: `Dspasm assembles SCU DSP source into a program RAM image.

Each source line is one instruction bundle: up to one ALU operation, one
X-bus, P, Y-bus, A and D1-bus move, packed into a single 32-bit word.
MVI, DMA and flow-control instructions take the whole word. The output is
a raw big-endian binary ready to upload through the DSP program port.
`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cfg, args[0])
		},
	}

	f := root.Flags()
	f.StringVarP(&cfg.output, "output", "o", "", "binary output file (default: source name with .bin)")
	f.StringVar(&cfg.listing, "listing", "", "write a listing to this file")
	f.StringVar(&cfg.symbols, "symbols", "", "write the symbol map to this file")
	f.BoolVar(&cfg.strict, "strict", false, "enforce the vendor assembler's line, name and nesting limits")
	f.StringArrayVarP(&cfg.defines, "define", "D", nil, "predefine `name[=value]` for IFDEF and substitution")
	f.StringVar(&cfg.color, "color", "auto", "colour diagnostics: auto, always or never")
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dspasm %s\n", version)
		},
	})
	return root
}

func run(cmd *cobra.Command, cfg config, path string) error {
	colour, err := useColour(cfg.color, os.Stderr)
	if err != nil {
		return report(cmd, err)
	}
	defines, err := parseDefines(cfg.defines)
	if err != nil {
		return report(cmd, err)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return report(cmd, err)
	}

	opts := assembler.DefaultOptions()
	opts.Strict = cfg.strict
	opts.Defines = defines
	asm := assembler.New(opts)
	prog, err := asm.Assemble(path, string(src))
	writeDiagnostics(cmd.ErrOrStderr(), asm.Diagnostics(), colour)
	if err != nil {
		return err
	}

	out := cfg.output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".bin"
	}
	if err := os.WriteFile(out, prog.Bytes(), 0644); err != nil {
		return report(cmd, err)
	}
	glog.V(1).Infof("wrote %d words to %s", prog.Size(), out)

	if cfg.listing != "" {
		if err := os.WriteFile(cfg.listing, []byte(listing(prog, string(src))), 0644); err != nil {
			return report(cmd, err)
		}
	}
	if cfg.symbols != "" {
		if err := os.WriteFile(cfg.symbols, []byte(symbolMap(prog)), 0644); err != nil {
			return report(cmd, err)
		}
	}
	return nil
}

func report(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "dspasm: %v\n", err)
	return err
}

// parseDefines turns -D arguments into predefined names. A bare name is 1;
// values take Go integer syntax or a $ hex prefix.
func parseDefines(args []string) (map[string]int64, error) {
	defines := make(map[string]int64, len(args))
	for _, a := range args {
		name, value, found := strings.Cut(a, "=")
		if name == "" {
			return nil, fmt.Errorf("-D %q: missing name", a)
		}
		v := int64(1)
		if found {
			var err error
			if hex, ok := strings.CutPrefix(value, "$"); ok {
				v, err = strconv.ParseInt(hex, 16, 64)
			} else {
				v, err = strconv.ParseInt(value, 0, 64)
			}
			if err != nil {
				return nil, fmt.Errorf("-D %s: %w", a, err)
			}
		}
		defines[name] = v
	}
	return defines, nil
}
