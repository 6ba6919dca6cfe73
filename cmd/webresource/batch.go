package main

import (
	"fmt"

	"github.com/spf13/cobra"

	webresource "github.com/albertocavalcante/go-webresource"
	"github.com/albertocavalcante/go-webresource/addressing"
)

func newBatchCmd(a *app) *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "batch CONTEXT...",
		Short: "Build the context batches for a list of contexts",
		Long: `Group the modules of the given contexts into context batches. Contexts
  sharing a module are merged into one batch. Each batch resource is printed
  with its URL and the modules it delivers.`,
		Example: `  webresource batch atl.general atl.admin
  webresource batch --type css atl.general`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contexts, err := parseContexts(args)
			if err != nil {
				return err
			}
			m, _, err := a.manager(cmd)
			if err != nil {
				return err
			}

			b := m.NewBuilder()
			out := cmd.OutOrStdout()
			for _, res := range b.Build(contexts, typeFilter(types)) {
				fmt.Fprintln(out, m.Addresser().URL(res.Resource(), addressing.ModeAuto))
				for _, k := range res.Modules {
					fmt.Fprintf(out, "  %s\n", k)
				}
			}
			for _, k := range b.Skipped().Keys() {
				fmt.Fprintf(out, "skipped %s\n", k)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "only include resources of these types")
	return cmd
}

func typeFilter(types []string) webresource.ResourceFilter {
	if len(types) == 0 {
		return nil
	}
	return webresource.FilterType(types...)
}
