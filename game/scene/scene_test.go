package scene

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/prefab"
)

func sampleRecords() []ObjectMetadata {
	return []ObjectMetadata{
		NewObjectMetadata(grid.Point{X: 2, Y: 3}, 0, "RoadStraight", 90, prefab.White, false),
		NewObjectMetadata(grid.Point{X: 4, Y: 1}, 0.5, "House", 180, prefab.Color{R: 0.2, G: 0.4, B: 0.6, A: 1}, false),
		NewObjectMetadata(grid.Point{X: 0, Y: 0}, 0, "ThreeWayCrossWalk", 270, prefab.White, true),
	}
}

func TestObjectMetadata_JSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.Encode(sampleRecords()[0]); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}

	line := buf.String()
	for _, field := range []string{
		"positionX", "positionY", "positionZ",
		"rotationX", "rotationY", "rotationZ", "rotationW",
		"prefabName", "colorR", "colorG", "colorB", "colorA", "variant",
	} {
		if !strings.Contains(line, `"`+field+`"`) {
			t.Errorf("Encoded record is missing %q: %s", field, line)
		}
	}
	if !strings.HasSuffix(line, "}\n") || strings.Count(line, "\n") != 1 {
		t.Errorf("Expected exactly one line, got %q", line)
	}
}

func TestObjectMetadata_PositionMapping(t *testing.T) {
	m := NewObjectMetadata(grid.Point{X: 7, Y: 3}, 0.25, "House", 0, prefab.White, false)
	if m.PositionX != 7 || m.PositionY != 0.25 || m.PositionZ != 3 {
		t.Errorf("Expected (7, 0.25, 3), got (%v, %v, %v)", m.PositionX, m.PositionY, m.PositionZ)
	}

	m.PositionX, m.PositionZ = 6.6, 2.4
	if got := m.GridPoint(); got != (grid.Point{X: 7, Y: 2}) {
		t.Errorf("GridPoint = %v, want (7,2)", got)
	}
}

func TestYawQuaternion(t *testing.T) {
	for _, deg := range []int{0, 90, 180, 270} {
		q := YawQuaternion(deg)
		if q.V[0] != 0 || q.V[2] != 0 {
			t.Errorf("Yaw quaternion for %d has non-yaw components %v", deg, q)
		}
		if got := QuaternionYaw(q); got != deg {
			t.Errorf("QuaternionYaw(YawQuaternion(%d)) = %d", deg, got)
		}
	}

	if got := QuaternionYaw(YawQuaternion(-90)); got != 270 {
		t.Errorf("Expected -90 to normalise to 270, got %d", got)
	}
}

func TestRoundTrip(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	if err := WriteAll(&buf, records); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	got, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("Round trip mismatch:\n%+v\nwant\n%+v", got, records)
	}
}

func TestRoundTrip_Zstd(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	zw, err := NewZstdWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteAll(zw, records); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(buf.Bytes(), []byte("prefabName")) {
		t.Error("Compressed output should not contain plain JSON")
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	got, err := ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("Zstd round trip mismatch")
	}
}

func TestNewReader_PlainPassthrough(t *testing.T) {
	r, err := NewReader(strings.NewReader("{}\n"))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(r)
	if string(b) != "{}\n" {
		t.Errorf("Expected plain input unchanged, got %q", b)
	}

	empty, err := NewReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Empty input should not fail: %v", err)
	}
	if recs, err := ReadAll(empty); err != nil || len(recs) != 0 {
		t.Errorf("Expected no records, got %v, %v", recs, err)
	}
}

func TestDecoder_Malformed(t *testing.T) {
	valid := `{"positionX":1,"positionY":0,"positionZ":1,"rotationX":0,"rotationY":0,"rotationZ":0,"rotationW":1,"prefabName":"House","colorR":1,"colorG":1,"colorB":1,"colorA":1,"variant":false}`

	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"not json", valid + "\n{oops\n", 2},
		{"missing prefab", `{"positionX":1}` + "\n", 1},
		{"wrong type", strings.Replace(valid, `"House"`, `42`, 1) + "\n", 1},
		{"color out of range", strings.Replace(valid, `"colorR":1`, `"colorR":3`, 1) + "\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := NewDecoder(strings.NewReader(tt.input))
			if err != nil {
				t.Fatal(err)
			}
			for {
				_, err = dec.Next()
				if err != nil {
					break
				}
			}
			if !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("Expected ErrMalformedRecord, got %v", err)
			}
			if dec.Line() != tt.line {
				t.Errorf("Expected failure on line %d, got %d", tt.line, dec.Line())
			}
		})
	}

	t.Run("blank lines skipped", func(t *testing.T) {
		recs, err := ReadAll(strings.NewReader("\n" + valid + "\n\n"))
		if err != nil || len(recs) != 1 {
			t.Errorf("Expected 1 record, got %d (%v)", len(recs), err)
		}
	})
}

func TestBook(t *testing.T) {
	b := NewBook()
	records := sampleRecords()
	for _, m := range records {
		b.Put(m.GridPoint(), m)
	}
	if b.Len() != 3 {
		t.Fatalf("Expected 3 records, got %d", b.Len())
	}

	// Row order: (0,0), (4,1), (2,3)
	names := []string{}
	for _, m := range b.Records() {
		names = append(names, m.PrefabName)
	}
	if !reflect.DeepEqual(names, []string{"ThreeWayCrossWalk", "House", "RoadStraight"}) {
		t.Errorf("Unexpected record order %v", names)
	}

	p := grid.Point{X: 4, Y: 1}
	ok := b.Update(p, func(m *ObjectMetadata) { m.SetColor(prefab.Color{R: 2, A: 1}) })
	if !ok {
		t.Fatal("Update should find the record")
	}
	if m, _ := b.Get(p); m.ColorR != 1 {
		t.Errorf("Expected clamped color 1, got %v", m.ColorR)
	}
	if b.Update(grid.Point{X: 9, Y: 9}, func(*ObjectMetadata) {}) {
		t.Error("Update on a missing point should report false")
	}

	b.Remove(p)
	if _, ok := b.Get(p); ok {
		t.Error("Record should be removed")
	}
	b.Clear()
	if b.Len() != 0 {
		t.Error("Clear should remove every record")
	}
}
