// Command yangkit-lint compiles one or more YANG modules and validates
// an optional instance data document against them, reporting every
// diagnostic found. It is a thin collaborator around the yangkit
// library: no package under cmd/ is imported by yangkit itself.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvarela/yangkit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "yangkit-lint [yang-files...]",
		Short: "Compile and validate YANG modules and instance data",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLint,
	}
	root.Flags().String("data", "", "path to an XML, JSON or YAML instance data document to validate")
	root.Flags().Bool("config-only", false, "validate as a config-only (state data rejected) document")
	root.Flags().StringSlice("search-dir", nil, "additional YANG module search directory")
	root.Flags().Bool("all-implemented", false, "treat every loaded module as implemented")
	root.Flags().String("config_file", "", "path to a yangkit-lint config file")
	root.Flags().String("print", "", "after validating, print the tree in this format (xml, json or yaml)")
	root.Flags().String("with-defaults", "report-all", "with-defaults reporting mode for --print: trim, report-all, report-all-tagged or explicit")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cfg, _ := cmd.Flags().GetString("config_file"); cfg != "" {
			viper.SetConfigFile(cfg)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config: %w", err)
			}
		}
		return viper.BindPFlags(cmd.Flags())
	}
	return root
}

func runLint(cmd *cobra.Command, args []string) error {
	var opts []yangkit.ContextOption
	for _, dir := range viper.GetStringSlice("search-dir") {
		opts = append(opts, yangkit.SearchDir(dir))
	}
	if viper.GetBool("all-implemented") {
		opts = append(opts, yangkit.AllImplemented())
	}
	ctx := yangkit.NewContext(opts...)

	schema, err := yangkit.Load(ctx, args...)
	if err != nil {
		return err
	}
	fmt.Printf("compiled %d top-level schema node(s)\n", len(schema.ChildNodes()))

	dataPath := viper.GetString("data")
	if dataPath == "" {
		return nil
	}
	f, err := os.Open(dataPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// Decode in full so that Validate, not the decoder, sees and rejects
	// state data when --config-only is set.
	mode := yangkit.ParseFull

	var tree yangkit.DataNode
	switch {
	case hasSuffix(dataPath, ".json"):
		tree, err = yangkit.DecodeJSON(f, schema, mode)
	case hasSuffix(dataPath, ".yaml"), hasSuffix(dataPath, ".yml"):
		tree, err = yangkit.DecodeYAML(f, schema, mode)
	default:
		tree, err = yangkit.DecodeXML(f, schema, mode)
	}
	if err != nil {
		return err
	}

	for _, e := range yangkit.Validate(tree, viper.GetBool("config-only")) {
		fmt.Fprintln(os.Stderr, e.Error())
	}

	format := viper.GetString("print")
	if format == "" {
		return nil
	}
	wdMode, err := parseWithDefaultsFlag(viper.GetString("with-defaults"))
	if err != nil {
		return err
	}
	switch format {
	case "xml":
		return yangkit.EncodeXML(os.Stdout, tree, wdMode)
	case "json":
		return yangkit.EncodeJSON(os.Stdout, tree, wdMode)
	case "yaml":
		return yangkit.EncodeYAML(os.Stdout, tree, wdMode)
	default:
		return fmt.Errorf("unknown --print format %q", format)
	}
}

func parseWithDefaultsFlag(s string) (yangkit.WithDefaultsMode, error) {
	switch s {
	case "trim":
		return yangkit.WithDefaultsTrim, nil
	case "report-all":
		return yangkit.WithDefaultsReportAll, nil
	case "report-all-tagged":
		return yangkit.WithDefaultsReportAllTagged, nil
	case "explicit":
		return yangkit.WithDefaultsExplicit, nil
	default:
		return 0, fmt.Errorf("unknown --with-defaults mode %q", s)
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
