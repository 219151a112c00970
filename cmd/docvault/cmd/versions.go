package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List committed snapshot versions",
		Long:  `List every committed snapshot version in ascending order, marking latest.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersions(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// VersionsOutput is the JSON output format for the versions command.
type VersionsOutput struct {
	Versions []string `json:"versions"`
	Latest   string   `json:"latest,omitempty"`
}

func runVersions(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	versions, err := a.catalog.ListVersions(ctx)
	if err != nil {
		return err
	}
	latest, err := a.manager.Latest(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		out := VersionsOutput{Versions: make([]string, 0, len(versions))}
		for _, v := range versions {
			out.Versions = append(out.Versions, v.String())
		}
		if latest != nil {
			out.Latest = latest.String()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(versions) == 0 {
		a.out.Status("", "no versions yet")
		return nil
	}

	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		marker := ""
		if latest != nil && v == *latest {
			marker = "latest"
		}
		m, err := a.manager.Manifest(ctx, v)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			v.String(),
			fmt.Sprintf("%d files", len(m.Files)),
			m.CreatedAt.Format("2006-01-02 15:04"),
			marker,
		})
	}
	a.out.Table(rows)
	return nil
}
