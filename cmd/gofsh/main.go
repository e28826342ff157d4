// Package main is the entry point for the gofsh CLI, which converts FHIR
// conformance resources and examples to FHIR Shorthand.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/engine"
	"github.com/gofhir/gofsh/pkg/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "gofsh [flags]",
	Short: "Convert FHIR definitions to FHIR Shorthand",
	Long: `gofsh reads FHIR StructureDefinitions, ValueSets, CodeSystems and example
instances (JSON) and writes equivalent FHIR Shorthand, together with a
sushi-config.yaml describing the project.

Dependencies are resolved from the local FHIR package cache and, with
--download, from packages.fhir.org.`,
	SilenceUsage: true,
	RunE:         runConvert,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./gofsh.yaml or ~/.config/gofsh/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error or none")

	flags := rootCmd.Flags()
	flags.StringP("in", "i", ".", "input file or directory of FHIR JSON")
	flags.StringP("out", "o", "gofsh", "output directory")
	flags.StringSliceP("dependency", "d", nil, "dependency package (name#version), may be repeated")
	flags.String("fhir-version", "R4", "FHIR version used when no ImplementationGuide declares one")
	flags.String("canonical", "", "canonical url for the generated configuration")
	flags.Bool("no-alias", false, "do not generate aliases for unresolved urls")
	flags.Bool("keep-dates", false, "keep date rules that look tool generated")
	flags.Bool("indent", false, "write contains rules with one item per line")
	flags.Bool("download", false, "download missing dependency packages")
	flags.String("package-cache", "", "FHIR package cache (default: ~/.fhir/packages)")

	if err := bindFlags(viper.GetViper(), rootCmd); err != nil {
		panic(err)
	}
}

// bindFlags binds the persistent log level and every local flag of cmd to v.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level")); err != nil {
		return fmt.Errorf("binding log-level flag: %w", err)
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("gofsh")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "gofsh"))
		}
	}

	viper.SetEnvPrefix("GOFSH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// optionsFromConfig builds conversion options from the merged flag, file
// and environment settings.
func optionsFromConfig(v *viper.Viper) ([]gofsh.Option, error) {
	fhirVersion, ok := gofsh.ParseFHIRVersion(v.GetString("fhir-version"))
	if !ok {
		return nil, fmt.Errorf("unsupported FHIR version %q", v.GetString("fhir-version"))
	}
	return []gofsh.Option{
		gofsh.WithFHIRVersion(fhirVersion),
		gofsh.WithDependencies(v.GetStringSlice("dependency")...),
		gofsh.WithCanonical(v.GetString("canonical")),
		gofsh.WithAliasGeneration(!v.GetBool("no-alias")),
		gofsh.WithKeepGeneratedDates(v.GetBool("keep-dates")),
		gofsh.WithIndent(v.GetBool("indent")),
		gofsh.WithDownload(v.GetBool("download")),
		gofsh.WithPackageCache(v.GetString("package-cache")),
	}, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	logger.SetLevel(logger.ParseLevel(viper.GetString("log-level")))

	opts, err := optionsFromConfig(viper.GetViper())
	if err != nil {
		return err
	}

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{viper.GetString("in")}
	}

	out, err := engine.New(opts...).Run(cmd.Context(), inputs...)
	if err != nil {
		return err
	}

	outDir := viper.GetString("out")
	written, err := writeOutput(outDir, out.Package)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), out, written, outDir)
	if out.Result.HasErrors() {
		return fmt.Errorf("conversion finished with %d error(s)", out.Result.ErrorCount())
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
