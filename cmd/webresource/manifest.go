package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-webresource/addressing"
	"github.com/albertocavalcante/go-webresource/manifest"
)

var errManifestChanged = errors.New("manifests differ")

func newManifestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Write and compare batch manifests",
		Long: `A batch manifest records the hash and URL of every batch a set of pages
  renders. Comparing the manifests of two builds shows which cached batches a
  deploy invalidates.`,
	}
	cmd.AddCommand(newManifestWriteCmd(a), newManifestDiffCmd())
	return cmd
}

func newManifestWriteCmd(a *app) *cobra.Command {
	var (
		contexts []string
		modules  []string
		output   string
		merge    bool
	)

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write the manifest of the batches delivering contexts and modules",
		Example: `  webresource manifest write -c atl.general -c atl.admin -o batches.json
  webresource manifest write -c jira.view.issue -o batches.json --merge`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			mf := manifest.New()
			for _, p := range m.Plan(ctxs, keys, nil) {
				if p.Resource.Kind == addressing.KindSingle {
					continue
				}
				mf.Add(p.Resource, m.Addresser().URL(p.Resource, addressing.ModeAuto), p.Modules)
			}

			if output == "" {
				_, err := mf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if merge && manifest.Exists(output) {
				existing, err := manifest.ReadFile(output)
				if err != nil {
					return err
				}
				if err := existing.Merge(mf, manifest.MergePreferNew); err != nil {
					return err
				}
				mf = existing
			}
			if err := mf.WriteFile(output); err != nil {
				return err
			}
			a.logger.Info("wrote manifest", "path", output, "batches", mf.Len())
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&contexts, "context", "c", nil, "contexts to include")
	cmd.Flags().StringSliceVarP(&modules, "module", "m", nil, "modules to include")
	cmd.Flags().StringVarP(&output, "output", "o", "", "manifest file to write (default stdout)")
	cmd.Flags().BoolVar(&merge, "merge", false, "merge into an existing manifest, replacing changed entries")
	return cmd
}

func newManifestDiffCmd() *cobra.Command {
	var (
		asJSON   bool
		exitCode bool
	)

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare two manifests",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := manifest.ReadFile(args[0])
			if err != nil {
				return err
			}
			after, err := manifest.ReadFile(args[1])
			if err != nil {
				return err
			}

			d := manifest.Compare(before, after)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(d); err != nil {
					return err
				}
			} else {
				fmt.Fprint(out, d.Summary())
			}
			if exitCode && !d.IsEmpty() {
				return fmt.Errorf("%w: %d changes", errManifestChanged, d.TotalChanges())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diff as JSON")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "fail when the manifests differ")
	return cmd
}
