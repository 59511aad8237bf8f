package cli

import (
	"github.com/spf13/cobra"

	"github.com/platinummonkey/yangsearch/pkg/engine"
	"github.com/platinummonkey/yangsearch/pkg/indices"
)

// IndexStatus is the output of index-exists and count.
type IndexStatus struct {
	Index     string `json:"index"`
	Exists    *bool  `json:"exists,omitempty"`
	Documents *int64 `json:"documents,omitempty"`
}

// DeletedIndex is one entry of the delete-index output.
type DeletedIndex struct {
	Index   string `json:"index"`
	Deleted bool   `json:"deleted"`
}

func newCreateIndexCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "create-index [kind...]",
		Short: "Create indices from their schemas",
		Long: `Create the indices of the given kinds, or of every kind when none is given.
An index that already exists is reported with status 400 and is left untouched.`,
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}

			results := make([]*engine.CreateIndexResult, 0, len(kinds))
			for _, kind := range kinds {
				res, err := e.mgr.CreateIndex(cmd.Context(), kind)
				if err != nil {
					return err
				}
				results = append(results, res)
			}
			return writeJSON(cmd.OutOrStdout(), results)
		}),
	}
}

func newDeleteIndexCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-index <kind...>",
		Short: "Delete indices and every document in them",
		Args:  cobra.MinimumNArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}

			results := make([]DeletedIndex, 0, len(kinds))
			for _, kind := range kinds {
				deleted, err := e.mgr.DeleteIndex(cmd.Context(), kind)
				if err != nil {
					return err
				}
				results = append(results, DeletedIndex{Index: kind.IndexName(), Deleted: deleted})
			}
			return writeJSON(cmd.OutOrStdout(), results)
		}),
	}
}

func newIndexExistsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "index-exists <kind>",
		Short: "Report whether an index exists",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			kind, err := indices.ParseKind(args[0])
			if err != nil {
				return err
			}
			exists, err := e.mgr.IndexExists(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), IndexStatus{Index: kind.IndexName(), Exists: &exists})
		}),
	}
}

func newCountCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "count <kind>",
		Short: "Count the documents of an index",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			kind, err := indices.ParseKind(args[0])
			if err != nil {
				return err
			}
			n, err := e.mgr.Count(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), IndexStatus{Index: kind.IndexName(), Documents: &n})
		}),
	}
}
