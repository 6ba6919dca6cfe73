package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	webresource "github.com/albertocavalcante/go-webresource"
	"github.com/albertocavalcante/go-webresource/origin"
)

func newCatCmd(a *app) *cobra.Command {
	var (
		root      string
		originURL string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "cat PATH",
		Short: "Print the content a resource URL serves",
		Long: `Resolve a resource request path against the descriptors and print the
  concatenated content of its members. Content is read from a directory laid
  out as {plugin}/{module}/{resource} (--root) or fetched from an origin
  server with the same layout (--origin).`,
		Example: `  webresource cat --root ./static /download/contextbatch/js/atl.general/batch.js
  webresource cat --origin https://cdn.example.com/r /download/batch/com.example:core/com.example:core.css`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source webresource.ResourceSource
			switch {
			case root != "" && originURL != "":
				return fmt.Errorf("--root and --origin are mutually exclusive")
			case originURL != "":
				source = origin.NewClient(originURL, origin.WithTimeout(timeout))
			default:
				if root == "" {
					root = "."
				}
				source = webresource.FSSource{FS: os.DirFS(root)}
			}

			m, _, err := a.manager(cmd)
			if err != nil {
				return err
			}
			p, query, _ := strings.Cut(args[0], "?")
			match, err := m.ResolveRequest(p, query)
			if err != nil {
				return err
			}
			return m.WriteMatch(cmd.Context(), cmd.OutOrStdout(), match, source)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "directory holding resource content (default \".\")")
	cmd.Flags().StringVar(&originURL, "origin", "", "origin server holding resource content")
	cmd.Flags().DurationVar(&timeout, "timeout", origin.DefaultRequestTimeout, "origin request timeout")
	return cmd
}
