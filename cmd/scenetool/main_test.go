package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/wricardo/roadgrid/game/editor"
	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/scene"
)

const validConfig = `{
	"name": "Test Config",
	"description": "Test configuration",
	"width": 4,
	"height": 3,
	"prefabs": [{"name": "House", "tag": "Structure"}],
	"layout": [
		"R...",
		"RRRR",
		"...."
	]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// exportScene draws a small scene on the test config and exports it to path
func exportScene(t *testing.T, configPath, path string) []scene.ObjectMetadata {
	t.Helper()
	settings, err := editor.LoadSettings(configPath)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	e, err := editor.NewFromSettings(settings, nil)
	if err != nil {
		t.Fatalf("NewFromSettings: %v", err)
	}
	e.DrawRoad(grid.Point{X: 3, Y: 1}, grid.Point{X: 3, Y: 0})
	if err := e.PlaceStructure("House", grid.Point{X: 0, Y: 0}, 90); err != nil {
		t.Fatalf("PlaceStructure: %v", err)
	}

	records := e.Records()
	if err := writeScene(path, records); err != nil {
		t.Fatalf("writeScene: %v", err)
	}
	return records
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = &buf
	err := app.Run(context.Background(), append([]string{"scenetool"}, args...))
	return buf.String(), err
}

func TestValidateConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		file      string
		content   string
		wantValid bool
		wantText  string
	}{
		{name: "Valid", file: "valid.json", content: validConfig, wantValid: true, wantText: "Layout roads: 5 in 1 networks"},
		{
			name:      "Yaml",
			file:      "valid.yaml",
			content:   "name: Yaml\nwidth: 3\nheight: 2\nlayout:\n  - \"R.R\"\n  - \"R.R\"\n",
			wantValid: true,
			wantText:  "Layout roads: 4 in 2 networks",
		},
		{name: "Malformed JSON", file: "broken.json", content: `{"name": `, wantText: "failed to parse config"},
		{name: "Bad layout", file: "layout.json", content: `{"name": "Bad", "width": 3, "height": 2, "layout": ["RRR", "RX."]}`, wantText: "invalid character 'X'"},
		{name: "Too small", file: "small.json", content: `{"name": "Small", "width": 1, "height": 1}`, wantText: "width must be between"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writeFile(t, dir, tt.file, tt.content))
			if result.Valid != tt.wantValid {
				t.Fatalf("Expected valid=%v, got errors %v", tt.wantValid, result.Errors)
			}

			lines := append(append([]string{}, result.Errors...), result.Info...)
			found := false
			for _, line := range lines {
				if strings.Contains(line, tt.wantText) {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected %q in %v", tt.wantText, lines)
			}
		})
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "nope.json"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
}

func TestRoadNetworks(t *testing.T) {
	tests := []struct {
		rows []string
		want int
	}{
		{[]string{"...", "...", "..."}, 0},
		{[]string{"RRR", "..R", "..R"}, 1},
		{[]string{"R.R", "...", "R.R"}, 4},
		{[]string{"RSR", "R.R", "RRR"}, 1},
		{[]string{"R.", ".R"}, 2},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.rows, "/"), func(t *testing.T) {
			if got := roadNetworks(tt.rows); got != tt.want {
				t.Errorf("Expected %d networks, got %d", tt.want, got)
			}
		})
	}
}

func TestConfigFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", "{}")
	writeFile(t, dir, "a.yaml", "")
	writeFile(t, dir, "c.yml", "")
	writeFile(t, dir, "README.md", "")
	os.Mkdir(filepath.Join(dir, "nested.json"), 0755)

	files, err := configFiles(dir)
	if err != nil {
		t.Fatalf("configFiles: %v", err)
	}

	want := []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.json"), filepath.Join(dir, "c.yml")}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("Expected %v, got %v", want, files)
	}
}

func TestInspectAndConvert(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "test.json", validConfig)
	plain := filepath.Join(dir, "scene.jsonl")
	records := exportScene(t, configPath, plain)

	t.Run("Inspect", func(t *testing.T) {
		stats, err := inspectScene(plain)
		if err != nil {
			t.Fatalf("inspectScene: %v", err)
		}
		if stats.Records != len(records) || stats.Compressed {
			t.Errorf("Unexpected stats %+v", stats)
		}
		if stats.Prefabs["House"] != 1 {
			t.Errorf("Expected one House, got %v", stats.Prefabs)
		}
		if stats.Min != (grid.Point{X: 0, Y: 0}) || stats.Max != (grid.Point{X: 3, Y: 2}) {
			t.Errorf("Unexpected bounds %v - %v", stats.Min, stats.Max)
		}
	})

	t.Run("Round trip through zstd", func(t *testing.T) {
		compressed := filepath.Join(dir, "scene"+scene.ZstdExt)
		back := filepath.Join(dir, "back.jsonl")

		if _, err := runApp(t, "convert", plain, compressed); err != nil {
			t.Fatalf("convert to zstd: %v", err)
		}
		head := make([]byte, 4)
		f, _ := os.Open(compressed)
		f.Read(head)
		f.Close()
		if !bytes.Equal(head, []byte{0x28, 0xb5, 0x2f, 0xfd}) {
			t.Errorf("Expected zstd magic, got %x", head)
		}

		if _, err := runApp(t, "convert", compressed, back); err != nil {
			t.Fatalf("convert back: %v", err)
		}

		want, _ := os.ReadFile(plain)
		got, _ := os.ReadFile(back)
		if !bytes.Equal(want, got) {
			t.Errorf("Round trip changed the scene:\n%s\n%s", want, got)
		}

		stats, err := inspectScene(compressed)
		if err != nil || !stats.Compressed || stats.Records != len(records) {
			t.Errorf("Unexpected compressed stats %+v (%v)", stats, err)
		}
	})

	t.Run("Inspect command", func(t *testing.T) {
		out, err := runApp(t, "inspect", plain)
		if err != nil {
			t.Fatalf("inspect: %v", err)
		}
		for _, want := range []string{"Records: ", "House", "Rotations:"} {
			if !strings.Contains(out, want) {
				t.Errorf("Expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("Inspect needs one file", func(t *testing.T) {
		if _, err := runApp(t, "inspect"); err == nil {
			t.Error("Expected usage error")
		}
	})

	t.Run("Malformed scene", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.jsonl", "{not json}\n")
		if _, err := inspectScene(bad); err == nil {
			t.Error("Expected error for malformed scene")
		}
	})
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "test.json", validConfig)
	scenePath := filepath.Join(dir, "scene.jsonl")
	exportScene(t, filepath.Join(dir, "test.json"), scenePath)

	t.Run("Config by id", func(t *testing.T) {
		out, err := runApp(t, "--config-dir", dir, "render", "test")
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		for _, want := range []string{"4x3  roads: 5  structures: 0", "  2 R...", "  1 RRRR", "  0 ...."} {
			if !strings.Contains(out, want) {
				t.Errorf("Expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("With scene", func(t *testing.T) {
		out, err := runApp(t, "--config-dir", dir, "render", "test", scenePath)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		for _, want := range []string{"structures: 1", "  0 S..R", "Imported"} {
			if !strings.Contains(out, want) {
				t.Errorf("Expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("Unknown config", func(t *testing.T) {
		if _, err := runApp(t, "--config-dir", dir, "render", "nowhere"); err == nil {
			t.Error("Expected error for unknown config")
		}
	})
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", validConfig)

	out, err := runApp(t, "--config-dir", dir, "validate")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "All configurations are valid") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	writeFile(t, dir, "bad.json", `{"name": ""}`)
	out, err = runApp(t, "--config-dir", dir, "validate")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 configurations are invalid") {
		t.Errorf("Expected one invalid config, got %v", err)
	}
	if !strings.Contains(out, "INVALID") {
		t.Errorf("Expected INVALID in output:\n%s", out)
	}
}

func TestProjectConfigsAreValid(t *testing.T) {
	files, err := configFiles("../../configs")
	if err != nil {
		t.Skipf("configs directory not available: %v", err)
	}
	for _, file := range files {
		if result := validateConfig(file); !result.Valid {
			t.Errorf("%s: %v", result.File, result.Errors)
		}
	}
}
