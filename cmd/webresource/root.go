package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	webresource "github.com/albertocavalcante/go-webresource"
	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/label"
)

const (
	flagDir               = "dir"
	flagBaseURL           = "base-url"
	flagDev               = "dev"
	flagSuperBatch        = "superbatch"
	flagSuperBatchVersion = "superbatch-version"
	flagMetrics           = "metrics"
)

// app holds the state shared by all subcommands of one invocation.
type app struct {
	logger   *slog.Logger
	registry *prometheus.Registry
}

// New returns the root command.
func New() *cobra.Command {
	a := &app{
		logger:   slog.New(slog.DiscardHandler),
		registry: prometheus.NewRegistry(),
	}

	cmd := &cobra.Command{
		Use:   "webresource [sub-command]",
		Short: "Inspect web resource descriptors, batches and URLs",
		Long: `webresource loads *.webresource descriptor files from a directory and
  answers questions about them: dependency closures, context batches, the
  tags a page renders, what a resource URL serves, and which batches changed
  between two builds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := baseLogger(cmd)
			if err != nil {
				return fmt.Errorf("could not retrieve logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if on, _ := cmd.Flags().GetBool(flagMetrics); !on {
				return nil
			}
			return a.dumpMetrics(cmd)
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().StringP(flagDir, "d", ".", "directory containing *.webresource descriptor files")
	cmd.PersistentFlags().String(flagBaseURL, "", `base URL for generated URLs, e.g. "/app" or "https://example.com/app"`)
	cmd.PersistentFlags().Bool(flagDev, false, "development mode: no hashes in URLs")
	cmd.PersistentFlags().StringSlice(flagSuperBatch, nil, "module keys whose closure forms the super-batch")
	cmd.PersistentFlags().String(flagSuperBatchVersion, "1", "super-batch version token")
	cmd.PersistentFlags().Bool(flagMetrics, false, "print collected metrics to stderr after the command")
	registerLoggingFlags(cmd)

	cmd.AddCommand(
		newResolveCmd(a),
		newBatchCmd(a),
		newRenderCmd(a),
		newParseURLCmd(a),
		newCatCmd(a),
		newGraphCmd(a),
		newManifestCmd(a),
	)
	return cmd
}

// load reads the descriptor directory.
func (a *app) load(cmd *cobra.Command) (*catalog.MemoryCatalog, error) {
	dir, _ := cmd.Flags().GetString(flagDir)
	cat, err := catalog.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded descriptors", "dir", dir, "modules", cat.Len())
	return cat, nil
}

// options translates the persistent flags into manager options.
func (a *app) options(cmd *cobra.Command) ([]webresource.Option, error) {
	baseURL, _ := cmd.Flags().GetString(flagBaseURL)
	dev, _ := cmd.Flags().GetBool(flagDev)
	opts := []webresource.Option{
		webresource.WithLogger(a.logger),
		webresource.WithMetrics(a.registry),
		webresource.WithBaseURL(baseURL),
		webresource.WithDevMode(dev),
	}

	roots, _ := cmd.Flags().GetStringSlice(flagSuperBatch)
	if len(roots) > 0 {
		keys, err := parseKeys(roots)
		if err != nil {
			return nil, err
		}
		version, _ := cmd.Flags().GetString(flagSuperBatchVersion)
		opts = append(opts, webresource.WithSuperBatch(keys, func() string { return version }))
	}
	return opts, nil
}

// manager loads the catalog and builds a Manager over it.
func (a *app) manager(cmd *cobra.Command) (*webresource.Manager, *catalog.MemoryCatalog, error) {
	cat, err := a.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	opts, err := a.options(cmd)
	if err != nil {
		return nil, nil, err
	}
	m, err := webresource.New(cat, opts...)
	if err != nil {
		return nil, nil, err
	}
	return m, cat, nil
}

func (a *app) dumpMetrics(cmd *cobra.Command) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	for _, f := range families {
		if _, err := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), f); err != nil {
			return err
		}
	}
	return nil
}

func parseKeys(ss []string) ([]label.Key, error) {
	keys := make([]label.Key, 0, len(ss))
	for _, s := range ss {
		k, err := label.ParseKey(s)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func parseContexts(ss []string) ([]label.Context, error) {
	out := make([]label.Context, 0, len(ss))
	for _, s := range ss {
		c, err := label.NewContext(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
