package main

import (
	"fmt"

	"github.com/spf13/cobra"

	webresource "github.com/albertocavalcante/go-webresource"
	"github.com/albertocavalcante/go-webresource/addressing"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		contexts []string
		modules  []string
		types    []string
		urlMode  string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the tags a page requiring contexts and modules would emit",
		Example: `  webresource render --context atl.general --module com.example.app:core
  webresource render --base-url https://example.com/app --url-mode absolute -c atl.general`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(contexts) == 0 && len(modules) == 0 {
				return fmt.Errorf("need at least one --context or --module")
			}
			mode, err := addressing.ParseURLMode(urlMode)
			if err != nil {
				return err
			}
			ctxs, err := parseContexts(contexts)
			if err != nil {
				return err
			}
			keys, err := parseKeys(modules)
			if err != nil {
				return err
			}
			m, _, err := a.manager(cmd)
			if err != nil {
				return err
			}

			ctx := webresource.WithRequestState(cmd.Context(), webresource.NewRequestState())
			for _, c := range ctxs {
				if err := m.RequireContext(ctx, c); err != nil {
					return err
				}
			}
			for _, k := range keys {
				if err := m.RequireModule(ctx, k); err != nil {
					return err
				}
			}
			return m.RenderRequired(ctx, cmd.OutOrStdout(), mode, typeFilter(types))
		},
	}

	cmd.Flags().StringSliceVarP(&contexts, "context", "c", nil, "contexts the page requires")
	cmd.Flags().StringSliceVarP(&modules, "module", "m", nil, "modules the page requires")
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "only render resources of these types")
	cmd.Flags().StringVar(&urlMode, "url-mode", "auto", "URL form: auto, relative or absolute")
	return cmd
}
