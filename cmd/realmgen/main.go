package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blimu-dev/realmgen/internal/cli"
	"github.com/blimu-dev/realmgen/pkg/generator/rust"
)

func main() {
	root := &cobra.Command{
		Use:           "realmgen",
		Short:         "Generate Rust admin client code from an OpenAPI description",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newEmitCmd("types", "Emit type declarations for the component schemas", false))
	root.AddCommand(newEmitCmd("rest", "Emit flat async client methods", true))
	root.AddCommand(newEmitCmd("resource", "Emit the realm scoped fluent client", true))
	root.AddCommand(newTagsCmd())
	root.AddCommand(newEmitCmd("specs", "Dump the decoded description as YAML", true))
	root.AddCommand(newValidateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bindCommon registers the flags shared by every generating subcommand
func bindCommon(cmd *cobra.Command, p *cli.RunParams, scoped bool) {
	cmd.Flags().StringVarP(&p.ConfigPath, "config", "c", "", "Path to realmgen.yaml config")
	cmd.Flags().StringVar(&p.Input, "input", "", "OpenAPI description file or URL (overrides config)")
	cmd.Flags().StringVar(&p.Overrides, "overrides", "", "Override patch file (overrides config)")
	cmd.Flags().BoolVar(&p.Validate, "validate", false, "Validate the description before generating")
	cmd.Flags().BoolVarP(&p.Verbose, "verbose", "v", false, "Enable debug diagnostics")
	cmd.Flags().StringVarP(&p.OutFile, "out", "o", "", "Write output to a file instead of stdout")
	if scoped {
		cmd.Flags().StringVar(&p.Tag, "tag", "", "Emit only operations of this tag")
		cmd.Flags().BoolVar(&p.NoTag, "no-tag", false, "Emit only untagged operations")
		cmd.MarkFlagsMutuallyExclusive("tag", "no-tag")
	}
}

func newEmitCmd(kind, short string, scoped bool) *cobra.Command {
	p := cli.RunParams{Kind: kind}
	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunGenerate(cmd.Context(), p, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	bindCommon(cmd, &p, scoped)
	return cmd
}

func newTagsCmd() *cobra.Command {
	p := cli.RunParams{Kind: "tags"}
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tag groups for build tooling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunGenerate(cmd.Context(), p, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	bindCommon(cmd, &p, true)
	cmd.Flags().StringVarP(&p.TagFormat, "format", "f", rust.FormatFeatures,
		"Output shape ("+strings.Join(rust.TagFormats, ", ")+")")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an OpenAPI description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.RunValidate(input); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid:", input)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "OpenAPI description file or URL")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
