package editor

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/scene"
)

// ImportResult summarises an import
type ImportResult struct {
	Applied  int      `json:"applied"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// Export writes one metadata record per committed object to w
func (e *Editor) Export(w io.Writer) error {
	records := e.Records()
	if err := scene.WriteAll(w, records); err != nil {
		return fmt.Errorf("failed to export scene: %w", err)
	}
	return nil
}

// Import clears the scene and replays the records read from r. Plain and
// zstd compressed input are both accepted.
//
// Road records are staged and committed at their rounded position, then
// given the record's color and crosswalk flag. Other records are placed as
// committed structures and keep their record verbatim. An unknown prefab or
// a malformed line stops the import; lines applied before it stay in place.
// Records that land out of bounds or on an occupied cell are skipped.
func (e *Editor) Import(r io.Reader) (ImportResult, error) {
	rc, err := scene.NewReader(r)
	if err != nil {
		return ImportResult{}, err
	}
	defer rc.Close()

	dec, err := scene.NewDecoder(rc)
	if err != nil {
		return ImportResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.clearScene()
	return e.replay(func() (scene.ObjectMetadata, error) {
		return dec.Next()
	})
}

// ImportRecords clears the scene and replays records
func (e *Editor) ImportRecords(records []scene.ObjectMetadata) (ImportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clearScene()
	i := 0
	return e.replay(func() (scene.ObjectMetadata, error) {
		if i >= len(records) {
			return scene.ObjectMetadata{}, io.EOF
		}
		i++
		return records[i-1], nil
	})
}

func (e *Editor) replay(next func() (scene.ObjectMetadata, error)) (ImportResult, error) {
	var res ImportResult
	skip := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Printf("Warning: import skipped record: %s", msg)
		res.Skipped++
		res.Warnings = append(res.Warnings, msg)
	}

	for n := 1; ; n++ {
		rec, err := next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, err
		}

		d, err := e.registry.Lookup(rec.PrefabName)
		if err != nil {
			return res, fmt.Errorf("record %d: %w", n, err)
		}

		pos := rec.GridPoint()
		if !e.store.InBounds(pos) {
			skip("record %d: %s at %v is out of bounds", n, rec.PrefabName, pos)
			continue
		}

		if d.IsRoad() {
			if !e.replayRoad(pos, rec) {
				skip("record %d: %v is occupied by a structure", n, pos)
				continue
			}
		} else {
			if _, err := e.store.PlacePermanent(pos, d, grid.Structure, rec.YawDegrees()); err != nil {
				skip("record %d: %v", n, err)
				continue
			}
			e.book.Put(pos, rec)
		}
		res.Applied++
	}
}

// replayRoad commits a single road cell at pos and applies the record's
// color and crosswalk flag
func (e *Editor) replayRoad(pos grid.Point, rec scene.ObjectMetadata) bool {
	e.session.BeginOrContinue(pos, true)
	e.endDrag()

	if e.grid.At(pos) != grid.Road {
		return false
	}
	e.book.Update(pos, func(m *scene.ObjectMetadata) { m.SetColor(rec.Color()) })
	if rec.Variant != e.store.IsCrosswalk(pos) {
		if _, err := e.toggleCrosswalk(pos); err != nil {
			return false
		}
	}
	return true
}
