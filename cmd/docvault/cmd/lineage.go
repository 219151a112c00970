package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/internal/lineage"
)

func newLineageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineage",
		Short: "Record and inspect artifact lineage",
		Long: `Lineage records document which data version and which exact files a
derived index was built from. They live beside the artifact as
lineage.json.`,
	}

	cmd.AddCommand(newLineageRecordCmd())
	cmd.AddCommand(newLineageShowCmd())
	return cmd
}

func newLineageRecordCmd() *cobra.Command {
	var note string
	var params []string

	cmd := &cobra.Command{
		Use:   "record [version]",
		Short: "Record lineage for an index build",
		Long: `Write the lineage record for the index directory of a snapshot
version. The file list and hashes are taken from the snapshot manifest.
Defaults to latest.

Build parameters are given as repeated key=value flags:

  docvault lineage record --param chunk_size=512 --param embedder=minilm`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := "latest"
			if len(args) == 1 {
				ref = args[0]
			}
			return runLineageRecord(cmd.Context(), cmd, ref, note, params)
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Free-form annotation for the record")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Build parameter as key=value (repeatable)")
	return cmd
}

func runLineageRecord(ctx context.Context, cmd *cobra.Command, ref, note string, params []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	v, err := a.manager.Resolve(ctx, ref)
	if err != nil {
		return err
	}

	release, err := a.acquireWriterLock()
	if err != nil {
		return err
	}
	defer release()

	// The artifact directory must exist before provenance can be recorded.
	dir, err := a.sync.EnsureArtifactDir(ctx, v)
	if err != nil {
		return err
	}

	m, err := a.manager.Manifest(ctx, v)
	if err != nil {
		return err
	}
	files := make([]lineage.FileRef, 0, len(m.Files))
	for _, f := range m.Files {
		files = append(files, lineage.FileRef{Name: f.Name, SHA256: f.SHA256})
	}

	parameters, err := parseParams(params)
	if err != nil {
		return err
	}

	rec, err := a.recorder.Record(ctx, lineage.Spec{
		Version:      v,
		ArtifactPath: dir.Path,
		Files:        files,
		Parameters:   parameters,
		Note:         note,
	})
	if err != nil {
		return err
	}

	a.out.Successf("lineage %s recorded for %s", rec.ID, dir.Path)
	return nil
}

// parseParams converts key=value flags into a parameter map.
func parseParams(params []string) (map[string]any, error) {
	if len(params) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(params))
	for _, p := range params {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", p)
		}
		m[key] = value
	}
	return m, nil
}

func newLineageShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [version]",
		Short: "Show the lineage record of an index",
		Long:  `Print the lineage record for the index directory of a version as JSON. Defaults to latest.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := "latest"
			if len(args) == 1 {
				ref = args[0]
			}
			return runLineageShow(cmd.Context(), cmd, ref)
		},
	}
	return cmd
}

func runLineageShow(ctx context.Context, cmd *cobra.Command, ref string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	v, err := a.manager.Resolve(ctx, ref)
	if err != nil {
		return err
	}

	rec, err := a.recorder.Get(ctx, a.sync.PathFor(v))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
