package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"musicus/internal/library"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apply FILE",
		Short: "Store the entities described in a YAML or JSON file",
		Long: "Each document names its kind and carries one entity. Entities it refers to\n" +
			"are created when missing and left untouched when they already exist.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocumentsFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				out := cmd.OutOrStdout()
				for _, doc := range docs {
					id, err := applyDocument(c, store, doc)
					if err != nil {
						return fmt.Errorf("apply %s %q: %w", doc.Kind, id, err)
					}
					fmt.Fprintf(out, "Applied %s %s\n", doc.Kind, id)
				}
				return nil
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export KIND ID",
		Short: "Print an entity as a document that apply accepts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := library.ParseKind(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				doc, err := loadDocument(c, store, kind, args[1])
				if err != nil {
					return err
				}
				return writeDocument(cmd, doc, format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	return cmd
}

func writeDocument(cmd *cobra.Command, doc document, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "yaml", "yml":
		return writeYAML(cmd.OutOrStdout(), doc)
	case "json":
		return writeJSON(cmd.OutOrStdout(), doc)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
