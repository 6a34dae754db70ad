package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/roadgrid/game/editor"
	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/scene"
)

// SceneStats summarizes an exported scene
type SceneStats struct {
	Records    int
	Compressed bool
	Prefabs    map[string]int
	Rotations  map[int]int
	Min, Max   grid.Point
}

// readScene reads every record of a plain or zstd compressed scene file
func readScene(path string) ([]scene.ObjectMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := scene.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return scene.ReadAll(r)
}

// writeScene writes records to path, compressing when path ends in .zst
func writeScene(path string, records []scene.ObjectMetadata) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if scene.IsZstdPath(path) {
		zw, err := scene.NewZstdWriter(f)
		if err != nil {
			return err
		}
		if err := scene.WriteAll(zw, records); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	}
	return scene.WriteAll(f, records)
}

// inspectScene collects statistics about a scene file
func inspectScene(path string) (*SceneStats, error) {
	records, err := readScene(path)
	if err != nil {
		return nil, err
	}

	stats := &SceneStats{
		Records:    len(records),
		Compressed: scene.IsZstdPath(path),
		Prefabs:    make(map[string]int),
		Rotations:  make(map[int]int),
	}
	for i, rec := range records {
		p := rec.GridPoint()
		if i == 0 {
			stats.Min, stats.Max = p, p
		}
		stats.Min.X, stats.Min.Y = min(stats.Min.X, p.X), min(stats.Min.Y, p.Y)
		stats.Max.X, stats.Max.Y = max(stats.Max.X, p.X), max(stats.Max.Y, p.Y)
		stats.Prefabs[rec.PrefabName]++
		stats.Rotations[rec.YawDegrees()]++
	}
	return stats, nil
}

func printStats(w io.Writer, path string, stats *SceneStats) {
	fmt.Fprintf(w, "Scene: %s\n", filepath.Base(path))
	fmt.Fprintf(w, "Compressed: %v\n", stats.Compressed)
	fmt.Fprintf(w, "Records: %d\n", stats.Records)
	if stats.Records == 0 {
		return
	}
	fmt.Fprintf(w, "Bounds: (%d, %d) - (%d, %d)\n", stats.Min.X, stats.Min.Y, stats.Max.X, stats.Max.Y)

	names := make([]string, 0, len(stats.Prefabs))
	for name := range stats.Prefabs {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "Prefabs:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-24s %d\n", name, stats.Prefabs[name])
	}

	rotations := make([]int, 0, len(stats.Rotations))
	for deg := range stats.Rotations {
		rotations = append(rotations, deg)
	}
	sort.Ints(rotations)
	fmt.Fprintln(w, "Rotations:")
	for _, deg := range rotations {
		fmt.Fprintf(w, "  %3d° %d\n", deg, stats.Rotations[deg])
	}
}

func runInspect(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("inspect takes exactly one scene file")
	}
	path := cmd.Args().First()

	stats, err := inspectScene(path)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	printStats(output(cmd), path, stats)
	return nil
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return errors.New("convert takes an input and an output file")
	}
	in, out := cmd.Args().Get(0), cmd.Args().Get(1)

	records, err := readScene(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	if err := writeScene(out, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(output(cmd), "Wrote %d records to %s\n", len(records), out)
	return nil
}

// resolveConfig accepts a path or a config id inside dir
func resolveConfig(dir, name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	for _, ext := range configExts {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("configuration not found: %s", name)
}

// renderScene builds the editor for a config and optionally imports a scene
func renderScene(configPath, scenePath string) (editor.Snapshot, *editor.ImportResult, error) {
	settings, err := editor.LoadSettings(configPath)
	if err != nil {
		return editor.Snapshot{}, nil, err
	}
	e, err := editor.NewFromSettings(settings, nil)
	if err != nil {
		return editor.Snapshot{}, nil, err
	}

	if scenePath == "" {
		return e.Snapshot(), nil, nil
	}
	records, err := readScene(scenePath)
	if err != nil {
		return editor.Snapshot{}, nil, err
	}
	res, err := e.ImportRecords(records)
	if err != nil {
		return editor.Snapshot{}, nil, err
	}
	return e.Snapshot(), &res, nil
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 || cmd.Args().Len() > 2 {
		return errors.New("render takes a config and an optional scene file")
	}

	configPath, err := resolveConfig(cmd.String("config-dir"), cmd.Args().Get(0))
	if err != nil {
		return err
	}

	snap, res, err := renderScene(configPath, cmd.Args().Get(1))
	if err != nil {
		return err
	}

	w := output(cmd)
	fmt.Fprintf(w, "%dx%d  roads: %d  structures: %d\n", snap.Width, snap.Height, snap.Roads, snap.Structures)
	for i, row := range snap.Rows {
		fmt.Fprintf(w, "%3d %s\n", snap.Height-1-i, row)
	}
	if res != nil {
		fmt.Fprintf(w, "Imported %d records, skipped %d\n", res.Applied, res.Skipped)
		for _, warning := range res.Warnings {
			fmt.Fprintln(w, "  "+warning)
		}
	}
	return nil
}
