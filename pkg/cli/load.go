package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/modules"
)

// LoadReport is the output of load.
type LoadReport struct {
	Index   string `json:"index"`
	Loaded  int    `json:"loaded"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
}

func (r *LoadReport) add(result string) {
	r.Loaded++
	switch result {
	case "created":
		r.Created++
	case "updated":
		r.Updated++
	}
}

func newLoadCmd(e *env) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "load <kind> <file.json>",
		Short: "Index documents from a JSON array",
		Long: `Index every document of a JSON array into the index of kind.

The yindex kind expects schema nodes, drafts expects drafts and the other
kinds expect modules. Use - to read from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			kind, err := indices.ParseKind(args[0])
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = e.cfg.Search.BulkConcurrency
			}

			report := &LoadReport{Index: kind.IndexName()}
			switch kind {
			case indices.KindYIndex:
				err = e.loadNodes(cmd, data, report)
			case indices.KindDrafts:
				err = e.loadDrafts(cmd, kind, data, report)
			default:
				err = e.loadModules(cmd, kind, data, concurrency, report)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		}),
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Maximum concurrent writes for module loads")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (e *env) loadModules(cmd *cobra.Command, kind indices.Kind, data []byte, concurrency int, report *LoadReport) error {
	var mods []modules.Module
	if err := json.Unmarshal(data, &mods); err != nil {
		return fmt.Errorf("failed to decode modules: %w", err)
	}
	results, err := e.mgr.IndexModules(cmd.Context(), kind, mods, concurrency)
	for _, res := range results {
		if res != nil {
			report.add(res.Result)
		}
	}
	return err
}

func (e *env) loadDrafts(cmd *cobra.Command, kind indices.Kind, data []byte, report *LoadReport) error {
	var drafts []modules.Draft
	if err := json.Unmarshal(data, &drafts); err != nil {
		return fmt.Errorf("failed to decode drafts: %w", err)
	}
	for _, d := range drafts {
		res, err := e.mgr.IndexDraft(cmd.Context(), kind, d)
		if err != nil {
			return fmt.Errorf("draft %s: %w", d.Name, err)
		}
		report.add(res.Result)
	}
	return nil
}

func (e *env) loadNodes(cmd *cobra.Command, data []byte, report *LoadReport) error {
	var nodes []modules.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return fmt.Errorf("failed to decode nodes: %w", err)
	}
	for _, n := range nodes {
		res, err := e.mgr.IndexNode(cmd.Context(), n)
		if err != nil {
			return fmt.Errorf("node %s@%s %s: %w", n.Name, n.Revision, n.Path, err)
		}
		report.add(res.Result)
	}
	return nil
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <name> <revision> <organization>",
		Short: "Delete every document of a module",
		Args:  cobra.ExactArgs(4),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			kind, err := indices.ParseKind(args[0])
			if err != nil {
				return err
			}
			report, err := e.mgr.DeleteFromIndex(cmd.Context(), kind, modules.Module{
				Name:         args[1],
				Revision:     args[2],
				Organization: args[3],
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		}),
	}
}
