package main

import (
	"fmt"

	"github.com/spf13/cobra"

	webresource "github.com/albertocavalcante/go-webresource"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		excludeSuperBatch bool
		contexts          []string
	)

	cmd := &cobra.Command{
		Use:   "resolve [KEY...]",
		Short: "Print the dependency closure of modules or contexts",
		Long: `Print the modules a page requiring KEY (or every module of a --context)
  receives, dependencies first. Cycles, missing and disabled dependencies are
  reported in the log and dropped.`,
		Example: `  webresource resolve com.example.app:core
  webresource resolve --context atl.general --exclude-superbatch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(contexts) == 0 {
				return fmt.Errorf("need at least one module key or --context")
			}
			keys, err := parseKeys(args)
			if err != nil {
				return err
			}
			ctxs, err := parseContexts(contexts)
			if err != nil {
				return err
			}

			m, _, err := a.manager(cmd)
			if err != nil {
				return err
			}
			r := m.Resolver()

			out := cmd.OutOrStdout()
			closure := r.ResolveAll(keys, excludeSuperBatch)
			skipped := &webresource.KeySet{}
			for _, c := range ctxs {
				closure.AddAll(r.ResolveInContext(c, skipped))
			}
			for _, k := range closure.Keys() {
				fmt.Fprintln(out, k)
			}
			for _, k := range skipped.Keys() {
				fmt.Fprintf(out, "%s (not batchable)\n", k)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&excludeSuperBatch, "exclude-superbatch", false, "leave out modules delivered by the super-batch")
	cmd.Flags().StringSliceVarP(&contexts, "context", "c", nil, "resolve every module of a context")
	return cmd
}
