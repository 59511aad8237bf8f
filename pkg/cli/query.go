package cli

import (
	"github.com/spf13/cobra"

	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/modules"
)

// Revisions is the output of revisions.
type Revisions struct {
	Name         string   `json:"name"`
	Revisions    []string `json:"revisions"`
	Organization string   `json:"organization"`
}

func newMatchAllCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "match-all <kind>",
		Short: "List the modules stored in an index",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			kind, err := indices.ParseKind(args[0])
			if err != nil {
				return err
			}
			all, err := e.mgr.MatchAll(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), all)
		}),
	}
}

func newAutocompleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "autocomplete <kind> <field> <term>",
		Short: "Suggest values of a field containing a term",
		Args:  cobra.ExactArgs(3),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			kind, err := indices.ParseKind(args[0])
			if err != nil {
				return err
			}
			field, err := modules.ParseField(args[1])
			if err != nil {
				return err
			}
			suggestions, err := e.mgr.Autocomplete(cmd.Context(), kind, field, args[2])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), suggestions)
		}),
	}
}

func newRevisionsCmd(e *env) *cobra.Command {
	var revision string

	cmd := &cobra.Command{
		Use:   "revisions <kind> <name>",
		Short: "List the revisions of a module, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			kind, err := indices.ParseKind(args[0])
			if err != nil {
				return err
			}
			revisions, org, err := e.mgr.GetRevisionsAndOrganization(cmd.Context(), kind, args[1], revision)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), Revisions{Name: args[1], Revisions: revisions, Organization: org})
		}),
	}

	cmd.Flags().StringVar(&revision, "revision", "", "Only match this revision")
	return cmd
}
