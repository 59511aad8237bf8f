package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/yangsearch/pkg/app"
	"github.com/platinummonkey/yangsearch/pkg/config"
	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/manager"
	"github.com/platinummonkey/yangsearch/pkg/observability"
)

// Version is set at build time.
var Version = "dev"

// options holds the connection overrides shared by every command.
type options struct {
	engine    string
	addresses []string
	username  string
	password  string
	insecure  bool
	schemaDir string
	logLevel  string
	noRefresh bool
}

// opener builds the manager a command runs against.
type opener func(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*manager.Manager, app.CloseFunc, error)

// env carries the state resolved before a command runs.
type env struct {
	opts   options
	open   opener
	cfg    *config.Config
	log    *logrus.Logger
	mgr    *manager.Manager
	closer app.CloseFunc
}

// NewRootCmd creates the root command of the indexer.
func NewRootCmd() *cobra.Command {
	return newRootCmd(openManager)
}

func newRootCmd(open opener) *cobra.Command {
	e := &env{open: open}

	cmd := &cobra.Command{
		Use:   "yangsearch-indexer",
		Short: "Manage the YANG module search indices",
		Long: `yangsearch-indexer creates, loads, inspects and prunes the search indices
backing the YANG module catalog.

Connection settings are read from the YANGSEARCH_* environment and can be
overridden with the flags below.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("yangsearch-indexer version {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&e.opts.engine, "engine", "", "Search engine (opensearch, embedded)")
	flags.StringSliceVar(&e.opts.addresses, "addresses", nil, "OpenSearch addresses")
	flags.StringVar(&e.opts.username, "username", "", "OpenSearch username")
	flags.StringVar(&e.opts.password, "password", "", "OpenSearch password")
	flags.BoolVar(&e.opts.insecure, "insecure", false, "Skip TLS certificate verification")
	flags.StringVar(&e.opts.schemaDir, "schema-dir", "", "Directory with index schema files")
	flags.StringVar(&e.opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&e.opts.noRefresh, "no-refresh", false, "Do not wait for writes to become searchable")

	cmd.AddCommand(newCreateIndexCmd(e))
	cmd.AddCommand(newDeleteIndexCmd(e))
	cmd.AddCommand(newIndexExistsCmd(e))
	cmd.AddCommand(newLoadCmd(e))
	cmd.AddCommand(newDeleteCmd(e))
	cmd.AddCommand(newMatchAllCmd(e))
	cmd.AddCommand(newCountCmd(e))
	cmd.AddCommand(newAutocompleteCmd(e))
	cmd.AddCommand(newRevisionsCmd(e))

	return cmd
}

// setup loads the configuration, applies flag overrides and opens the manager.
func (e *env) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine.Type = e.opts.engine
	}
	if flags.Changed("addresses") {
		cfg.Engine.Addresses = e.opts.addresses
	}
	if flags.Changed("username") {
		cfg.Engine.Username = e.opts.username
	}
	if flags.Changed("password") {
		cfg.Engine.Password = e.opts.password
	}
	if flags.Changed("insecure") {
		cfg.Engine.InsecureSkipVerify = e.opts.insecure
	}
	if flags.Changed("schema-dir") {
		cfg.Engine.SchemaDir = e.opts.schemaDir
	}
	if flags.Changed("log-level") {
		cfg.Observability.LogLevel = e.opts.logLevel
	}
	if e.opts.noRefresh {
		cfg.Engine.Refresh = false
	}
	if err := cfg.Engine.Validate(); err != nil {
		return err
	}

	// Logs go to stderr so stdout stays valid JSON.
	log, err := observability.NewLogger(cfg.Observability.LogLevel, observability.FormatText, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	mgr, closer, err := e.open(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.log = log
	e.mgr = mgr
	e.closer = closer
	return nil
}

// run wraps a command body with setup and teardown of the manager.
func (e *env) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := e.setup(cmd); err != nil {
			return err
		}
		defer func() {
			if cerr := e.teardown(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args)
	}
}

func (e *env) teardown() error {
	if e.closer == nil {
		return nil
	}
	err := e.closer()
	e.closer = nil
	return err
}

// openManager connects to the configured engine.
func openManager(_ context.Context, cfg *config.Config, log logrus.FieldLogger) (*manager.Manager, app.CloseFunc, error) {
	registry, err := app.NewRegistry(cfg.Engine.SchemaDir)
	if err != nil {
		return nil, nil, err
	}
	eng, closer, err := app.NewEngine(cfg.Engine, registry, log)
	if err != nil {
		return nil, nil, err
	}
	return app.NewManager(cfg, eng, registry, nil, nil, log), closer, nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func parseKinds(args []string) ([]indices.Kind, error) {
	if len(args) == 0 {
		return indices.Kinds(), nil
	}
	kinds := make([]indices.Kind, 0, len(args))
	for _, a := range args {
		k, err := indices.ParseKind(a)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
