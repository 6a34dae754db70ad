package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"

	"github.com/wricardo/roadgrid/game/editor"
	"github.com/wricardo/roadgrid/game/grid"
)

var configExts = []string{".json", ".yaml", ".yml"}

// ValidationResult captures the outcome of validating a single file.
// Errors make the file invalid; Info lines describe a valid one.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads a configuration, builds an editor from it and checks
// that the starting layout survived tile fixing
func validateConfig(path string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(path),
		Valid: true,
	}

	settings, err := editor.LoadSettings(path)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	e, err := editor.NewFromSettings(settings, nil)
	if err != nil {
		result.fail("Failed to build editor: %v", err)
		return result
	}
	snap := e.Snapshot()

	want := 0
	for _, row := range settings.Layout {
		want += strings.Count(row, "R")
	}
	if snap.Roads != want {
		result.fail("Layout has %d road cells but the editor committed %d", want, snap.Roads)
	}

	tileNames := make(map[string]bool)
	for _, name := range settings.TileSet().Names() {
		tileNames[name] = true
	}
	var structures []string
	for _, d := range settings.Prefabs {
		if !tileNames[d.Name] {
			structures = append(structures, d.Name)
		}
	}

	result.Info = append(result.Info,
		fmt.Sprintf("Grid: %dx%d", settings.Width, settings.Height),
		fmt.Sprintf("Structures: %s", strings.Join(structures, ", ")),
		fmt.Sprintf("Layout roads: %d in %d networks", snap.Roads, roadNetworks(snap.Rows)),
	)
	return result
}

// roadNetworks counts 4-connected groups of road cells in rendered rows
func roadNetworks(rows []string) int {
	isRoad := func(p grid.Point) bool {
		return p.Y >= 0 && p.Y < len(rows) && p.X >= 0 && p.X < len(rows[p.Y]) && rows[p.Y][p.X] == 'R'
	}

	visited := mapset.New[grid.Point]()
	networks := 0
	for y, row := range rows {
		for x := range row {
			start := grid.Point{X: x, Y: y}
			if !isRoad(start) || visited.Has(start) {
				continue
			}
			networks++

			// Flood fill
			q := queue.New[grid.Point]()
			q.Enqueue(start)
			visited.Put(start)
			for !q.Empty() {
				p := q.Dequeue()
				for _, d := range []grid.Point{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}} {
					n := grid.Point{X: p.X + d.X, Y: p.Y + d.Y}
					if isRoad(n) && !visited.Has(n) {
						visited.Put(n)
						q.Enqueue(n)
					}
				}
			}
		}
	}
	return networks
}

// configFiles lists the configuration files in dir, sorted by name
func configFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, known := range configExts {
			if ext == known {
				files = append(files, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// printResult writes a concise report for one file
func printResult(w io.Writer, result ValidationResult) {
	fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)
	if result.Valid {
		fmt.Fprintln(w, "VALID")
		for _, info := range result.Info {
			fmt.Fprintln(w, "  "+info)
		}
		return
	}
	fmt.Fprintln(w, "INVALID")
	for _, err := range result.Errors {
		fmt.Fprintln(w, "  - "+err)
	}
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	w := output(cmd)

	files := cmd.Args().Slice()
	if len(files) == 0 {
		var err error
		files, err = configFiles(cmd.String("config-dir"))
		if err != nil {
			return fmt.Errorf("failed to list configs: %w", err)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no configuration files found")
	}

	invalid := 0
	for _, file := range files {
		result := validateConfig(file)
		printResult(w, result)
		if !result.Valid {
			invalid++
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if invalid > 0 {
		return fmt.Errorf("%d of %d configurations are invalid", invalid, len(files))
	}
	fmt.Fprintln(w, "All configurations are valid")
	return nil
}

// output returns the writer commands print to
func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
