package scene

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedRecord is returned when a line cannot be decoded into a record
var ErrMalformedRecord = errors.New("malformed record")

//go:embed record.schema.json
var recordSchemaJSON string

var (
	recordSchemaOnce sync.Once
	recordSchema     *jsonschema.Schema
	recordSchemaErr  error
)

// RecordSchema returns the compiled JSON Schema for one record
func RecordSchema() (*jsonschema.Schema, error) {
	recordSchemaOnce.Do(func() {
		recordSchema, recordSchemaErr = jsonschema.CompileString("record.schema.json", recordSchemaJSON)
	})
	return recordSchema, recordSchemaErr
}

// Encoder writes records as newline-delimited JSON
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder creates an encoder writing to w. Call Flush when done.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes one record followed by a newline
func (e *Encoder) Encode(m ObjectMetadata) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if _, err := e.w.Write(b); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// Decoder reads newline-delimited records, validating each line
type Decoder struct {
	sc     *bufio.Scanner
	schema *jsonschema.Schema
	line   int
}

// NewDecoder creates a decoder reading from r
func NewDecoder(r io.Reader) (*Decoder, error) {
	schema, err := RecordSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile record schema: %w", err)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	return &Decoder{sc: sc, schema: schema}, nil
}

// Line returns the number of the last line read
func (d *Decoder) Line() int {
	return d.line
}

// Next returns the next record. Blank lines are skipped; io.EOF marks the
// end of input. Undecodable or invalid lines wrap ErrMalformedRecord.
func (d *Decoder) Next() (ObjectMetadata, error) {
	for d.sc.Scan() {
		d.line++
		line := bytes.TrimSpace(d.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		return d.decode(line)
	}
	if err := d.sc.Err(); err != nil {
		return ObjectMetadata{}, fmt.Errorf("failed to read records: %w", err)
	}
	return ObjectMetadata{}, io.EOF
}

func (d *Decoder) decode(line []byte) (ObjectMetadata, error) {
	var raw any
	if err := json.Unmarshal(line, &raw); err != nil {
		return ObjectMetadata{}, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, d.line, err)
	}
	if err := d.schema.Validate(raw); err != nil {
		return ObjectMetadata{}, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, d.line, err)
	}

	var m ObjectMetadata
	if err := json.Unmarshal(line, &m); err != nil {
		return ObjectMetadata{}, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, d.line, err)
	}
	return m, nil
}

// ReadAll decodes every record from r
func ReadAll(r io.Reader) ([]ObjectMetadata, error) {
	dec, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}
	var out []ObjectMetadata
	for {
		m, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
}

// WriteAll encodes every record to w
func WriteAll(w io.Writer, records []ObjectMetadata) error {
	enc := NewEncoder(w)
	for _, m := range records {
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return enc.Flush()
}

// zstd frame magic number
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ZstdExt is the file extension of compressed scenes
const ZstdExt = ".jsonl.zst"

// IsZstdPath reports whether name carries the compressed scene extension
func IsZstdPath(name string) bool {
	return strings.HasSuffix(name, ".zst")
}

// NewZstdWriter wraps w so that everything written is zstd compressed.
// Closing the result flushes the frame but does not close w.
func NewZstdWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	return enc, nil
}

// NewReader returns a reader over r that transparently decompresses zstd
// input. Plain .jsonl input is passed through.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read scene header: %w", err)
	}
	if !bytes.Equal(head, zstdMagic) {
		return io.NopCloser(br), nil
	}

	dec, err := zstd.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	return dec.IOReadCloser(), nil
}
