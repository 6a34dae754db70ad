// Package scene holds the durable description of placed objects.
//
// Core Types:
//   - ObjectMetadata: one placed object, field-exact with the .jsonl format
//   - Book: committed metadata keyed by grid point
//   - Encoder / Decoder: newline-delimited JSON, optionally zstd compressed
//
// Grid point (x, y) maps to world position (x, elevation, y); rotations are
// yaw quaternions around the vertical axis.
package scene

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/prefab"
)

// ObjectMetadata is the persisted record of one placed object
type ObjectMetadata struct {
	PositionX  float32 `json:"positionX"`
	PositionY  float32 `json:"positionY"`
	PositionZ  float32 `json:"positionZ"`
	RotationX  float32 `json:"rotationX"`
	RotationY  float32 `json:"rotationY"`
	RotationZ  float32 `json:"rotationZ"`
	RotationW  float32 `json:"rotationW"`
	PrefabName string  `json:"prefabName"`
	ColorR     float32 `json:"colorR"`
	ColorG     float32 `json:"colorG"`
	ColorB     float32 `json:"colorB"`
	ColorA     float32 `json:"colorA"`
	Variant    bool    `json:"variant"`
}

// NewObjectMetadata builds the record for an object at p
func NewObjectMetadata(p grid.Point, elevation float32, prefabName string, rotation int, c prefab.Color, variant bool) ObjectMetadata {
	m := ObjectMetadata{
		PositionX:  float32(p.X),
		PositionY:  elevation,
		PositionZ:  float32(p.Y),
		PrefabName: prefabName,
		Variant:    variant,
	}
	m.SetRotation(YawQuaternion(rotation))
	m.SetColor(c)
	return m
}

// GridPoint rounds the world position to the nearest grid point
func (m ObjectMetadata) GridPoint() grid.Point {
	return grid.Point{
		X: int(math.Round(float64(m.PositionX))),
		Y: int(math.Round(float64(m.PositionZ))),
	}
}

// Rotation returns the record's rotation quaternion
func (m ObjectMetadata) Rotation() mgl32.Quat {
	return mgl32.Quat{W: m.RotationW, V: mgl32.Vec3{m.RotationX, m.RotationY, m.RotationZ}}
}

// SetRotation stores q in the record
func (m *ObjectMetadata) SetRotation(q mgl32.Quat) {
	m.RotationX, m.RotationY, m.RotationZ = q.V[0], q.V[1], q.V[2]
	m.RotationW = q.W
}

// Color returns the record's color
func (m ObjectMetadata) Color() prefab.Color {
	return prefab.Color{R: m.ColorR, G: m.ColorG, B: m.ColorB, A: m.ColorA}
}

// SetColor stores c, clamped to [0,1]
func (m *ObjectMetadata) SetColor(c prefab.Color) {
	c = c.Clamp()
	m.ColorR, m.ColorG, m.ColorB, m.ColorA = c.R, c.G, c.B, c.A
}

// YawDegrees returns the record's rotation around the vertical axis,
// rounded to whole degrees in [0, 360)
func (m ObjectMetadata) YawDegrees() int {
	return QuaternionYaw(m.Rotation())
}

// YawQuaternion returns the rotation of deg degrees around +Y
func YawQuaternion(deg int) mgl32.Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(float32(deg)), mgl32.Vec3{0, 1, 0})
}

// QuaternionYaw extracts the yaw of q in whole degrees in [0, 360)
func QuaternionYaw(q mgl32.Quat) int {
	q = q.Normalize()
	rad := 2 * math.Atan2(float64(q.V[1]), float64(q.W))
	deg := int(math.Round(rad * 180 / math.Pi))
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Book is the committed metadata of a scene, one record per grid point.
// It is not safe for concurrent use.
type Book struct {
	records map[grid.Point]ObjectMetadata
}

// NewBook creates an empty book
func NewBook() *Book {
	return &Book{records: make(map[grid.Point]ObjectMetadata)}
}

// Put stores m under p, replacing any previous record
func (b *Book) Put(p grid.Point, m ObjectMetadata) {
	b.records[p] = m
}

// Get returns the record stored under p
func (b *Book) Get(p grid.Point) (ObjectMetadata, bool) {
	m, ok := b.records[p]
	return m, ok
}

// Update applies fn to the record under p and reports whether one existed
func (b *Book) Update(p grid.Point, fn func(*ObjectMetadata)) bool {
	m, ok := b.records[p]
	if !ok {
		return false
	}
	fn(&m)
	b.records[p] = m
	return true
}

// Remove deletes the record under p
func (b *Book) Remove(p grid.Point) {
	delete(b.records, p)
}

// Len returns the number of records
func (b *Book) Len() int {
	return len(b.records)
}

// Clear removes every record
func (b *Book) Clear() {
	b.records = make(map[grid.Point]ObjectMetadata)
}

// Records returns every record in row order
func (b *Book) Records() []ObjectMetadata {
	points := make([]grid.Point, 0, len(b.records))
	for p := range b.records {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Less(points[j]) })

	out := make([]ObjectMetadata, 0, len(points))
	for _, p := range points {
		out = append(out, b.records[p])
	}
	return out
}
