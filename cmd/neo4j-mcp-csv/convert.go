package main

import (
	"fmt"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/importer"
	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
	"github.com/spf13/cobra"
)

type convertFlags struct {
	source  string
	header  string
	labels  []string
	relType string
}

func newConvertCommand(a *app) *cobra.Command {
	convert := &cobra.Command{
		Use:   "convert",
		Short: "Print the LOAD CSV program of a CSV header without running it",
	}

	var nodeFlags convertFlags
	nodes := &cobra.Command{
		Use:   "nodes",
		Short: "Convert a node file header",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.cfg.LoaderConfig()
			if err != nil {
				return err
			}
			header, url, err := a.header(nodeFlags)
			if err != nil {
				return err
			}
			program, err := loadcsv.ConvertNodes(url, header, nodeFlags.labels, cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), program.String()+";")
			return err
		},
	}
	addSourceFlags(nodes, &nodeFlags)
	nodes.Flags().StringSliceVar(&nodeFlags.labels, "label", nil, "label given to every node, repeatable")

	var relFlags convertFlags
	relationships := &cobra.Command{
		Use:   "relationships",
		Short: "Convert a relationship file header",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.cfg.LoaderConfig()
			if err != nil {
				return err
			}
			header, url, err := a.header(relFlags)
			if err != nil {
				return err
			}
			query, err := loadcsv.ConvertRelationships(url, header, relFlags.relType, cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), query+";")
			return err
		},
	}
	addSourceFlags(relationships, &relFlags)
	relationships.Flags().StringVar(&relFlags.relType, "type", "", "relationship type, required unless the header has a :TYPE column")

	convert.AddCommand(nodes, relationships)
	return convert
}

func addSourceFlags(cmd *cobra.Command, f *convertFlags) {
	cmd.Flags().StringVar(&f.source, "source", "", "file path relative to the import directory, or a URL")
	cmd.Flags().StringVar(&f.header, "header", "", "header line; read from the file when omitted")
	_ = cmd.MarkFlagRequired("source")
}

// header returns the header line and the URL the program loads from. The
// header is read from the local file unless given explicitly.
func (a *app) header(f convertFlags) (header, url string, err error) {
	local, url := importer.Resolve(a.cfg.ImportDir, f.source)
	if f.header != "" {
		return f.header, url, nil
	}
	if local == "" {
		return "", "", fmt.Errorf("--header is required for remote source %s", f.source)
	}
	header, err = importer.ReadHeader(local)
	if err != nil {
		return "", "", err
	}
	return header, url, nil
}
