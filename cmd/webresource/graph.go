package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-webresource/graph"
	"github.com/albertocavalcante/go-webresource/label"
)

func newGraphCmd(a *app) *cobra.Command {
	var (
		contexts []string
		output   string
		why      string
	)

	cmd := &cobra.Command{
		Use:   "graph [KEY...]",
		Short: "Show the module dependency graph",
		Long: `Show the dependency graph reachable from the given modules and the
  modules of every --context. Output is a text tree with statistics, Graphviz
  DOT or JSON. --why prints every dependency chain that pulls a module in.`,
		Example: `  webresource graph com.example.app:core
  webresource graph --context atl.general --output dot | dot -Tsvg > graph.svg
  webresource graph --context atl.general --why com.example.lib:jquery`,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := parseKeys(args)
			if err != nil {
				return err
			}
			ctxs, err := parseContexts(contexts)
			if err != nil {
				return err
			}
			cat, err := a.load(cmd)
			if err != nil {
				return err
			}
			for _, c := range ctxs {
				roots = append(roots, cat.ContextModules(c)...)
			}
			if len(roots) == 0 {
				return fmt.Errorf("no root modules: give a module key or a --context")
			}

			g := graph.Build(cat, roots...)
			out := cmd.OutOrStdout()

			if why != "" {
				key, err := label.ParseKey(why)
				if err != nil {
					return err
				}
				chains, err := g.WhyIncluded(key)
				if err != nil {
					return err
				}
				for _, c := range chains {
					fmt.Fprintln(out, c)
				}
				return nil
			}

			switch output {
			case "text":
				fmt.Fprint(out, g.ToText())
			case "dot":
				fmt.Fprint(out, g.ToDOT())
			case "json":
				data, err := g.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			default:
				return fmt.Errorf("invalid output format: %s", output)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&contexts, "context", "c", nil, "add every module of a context as a root")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, dot or json")
	cmd.Flags().StringVar(&why, "why", "", "print the dependency chains that include this module")
	return cmd
}
