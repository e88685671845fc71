// Command wasm2jvm is the diagnostic CLI spec.md §6 quotes "for
// completeness": it is external to the translator core and does not do
// archive packaging or class-file serialization (both explicit
// Non-goals, spec.md §1). It loads a JSON fixture standing in for the
// out-of-scope WASM parser/validator, runs the translator, and prints a
// diagnostic summary of the produced class descriptors.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	translate "github.com/wasm2jvm/translator"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "wasm2jvm",
		Short:        "Translate a parsed WASM module fixture into JVM class descriptors",
		SilenceUsage: true,
	}
	root.AddCommand(newTranslateCmd())
	return root
}

func newTranslateCmd() *cobra.Command {
	var (
		baseName  string
		verbose   bool
		cacheSize int
	)

	cmd := &cobra.Command{
		Use:   "translate <module.json>",
		Short: "Translate one JSON-encoded wasm.Module fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			v.SetDefault("base", baseName)
			v.SetDefault("cache-size", cacheSize)
			if err := v.BindPFlag("base", cmd.Flags().Lookup("base")); err != nil {
				return err
			}
			if err := v.BindPFlag("cache-size", cmd.Flags().Lookup("cache-size")); err != nil {
				return err
			}

			module, err := loadModuleFixture(args[0])
			if err != nil {
				return fmt.Errorf("load fixture: %w", err)
			}

			logger := zap.NewNop()
			if verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				logger = l
			}
			defer logger.Sync() //nolint:errcheck

			out, err := translate.Translate(module,
				translate.WithBaseName(v.GetString("base")),
				translate.WithLogger(logger),
				translate.WithCarrierCacheSize(v.GetInt("cache-size")),
			)
			if err != nil {
				return fmt.Errorf("translate: %w", err)
			}

			printSummary(cmd, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseName, "base", "Module", "main module class base name")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().IntVar(&cacheSize, "cache-size", 0, "carrier shape cache size (0 selects the default)")
	return cmd
}

func printSummary(cmd *cobra.Command, out *translate.Output) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "main class:    %s\n", out.MainClass.Name)
	fmt.Fprintf(w, "methods:       %d\n", len(out.MainClass.Methods))
	fmt.Fprintf(w, "fields:        %d\n", len(out.MainClass.Fields))
	fmt.Fprintf(w, "carrier classes: %d (planned %d, reused %d)\n",
		len(out.CarrierClasses), out.CarrierClassesPlanned, out.CarrierClassesReused)
	fmt.Fprintf(w, "traps helper:  %s\n", out.TrapsHelper.Name)
	fmt.Fprintf(w, "nan helper:    %s\n", out.NaNHelper.Name)
	if len(out.Diagnostics) == 0 {
		return
	}
	fmt.Fprintln(w, "diagnostics:")
	for _, d := range out.Diagnostics {
		fmt.Fprintf(w, "  [%s] %s\n", d.Kind, d.Message)
	}
}
