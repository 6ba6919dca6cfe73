package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-webresource/addressing"
	"github.com/albertocavalcante/go-webresource/label"
)

func newParseURLCmd(a *app) *cobra.Command {
	var members bool

	cmd := &cobra.Command{
		Use:   "parse-url PATH",
		Short: "Decode a resource URL",
		Long: `Decode a resource request path (optionally with its query) into its kind,
  modules or contexts, type, name, parameters and hash. With --members the
  path is also matched against the descriptors and the resources it serves
  are listed in order.`,
		Example: `  webresource parse-url '/s/abc/_/download/contextbatch/css/atl.general/batch.css?media=print'
  webresource parse-url --members /download/batch/com.example.app:core/com.example.app:core.js`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, query, _ := strings.Cut(args[0], "?")
			out := cmd.OutOrStdout()

			if !members {
				r, err := addressing.Parse(p, query)
				if err != nil {
					return err
				}
				printResource(out, r)
				return nil
			}

			m, _, err := a.manager(cmd)
			if err != nil {
				return err
			}
			match, err := m.ResolveRequest(p, query)
			if err != nil {
				return err
			}
			printResource(out, match.Request)
			for _, mem := range match.Members {
				fmt.Fprintf(out, "member:   %s/%s\n", mem.Module, mem.Resource.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&members, "members", false, "list the resources the URL serves")
	return cmd
}

func printResource(w io.Writer, r addressing.Resource) {
	fmt.Fprintf(w, "kind:     %s\n", r.Kind)
	if !r.Module.IsEmpty() {
		fmt.Fprintf(w, "module:   %s\n", r.Module)
	}
	if len(r.Contexts) > 0 {
		fmt.Fprintf(w, "contexts: %s\n", label.JoinContexts(r.Contexts))
	}
	if len(r.Excluded) > 0 {
		fmt.Fprintf(w, "excluded: %s\n", label.JoinContexts(r.Excluded))
	}
	fmt.Fprintf(w, "type:     %s\n", r.Type)
	fmt.Fprintf(w, "name:     %s\n", r.ResourceName(false))
	if r.Hash != "" {
		fmt.Fprintf(w, "hash:     %s\n", r.Hash)
	}
	for _, k := range r.Params.SortedKeys() {
		fmt.Fprintf(w, "param:    %s=%s\n", k, r.Params[k])
	}
}
