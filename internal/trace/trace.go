// Package trace records runs as JSON lines, one protojson-encoded snapshot
// per line.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/runner"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/simulation"
)

const maxLine = 4 << 20

// Writer appends snapshots to an underlying writer.
type Writer struct {
	w    *bufio.Writer
	opts protojson.MarshalOptions
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:    bufio.NewWriter(w),
		opts: protojson.MarshalOptions{UseProtoNames: true},
	}
}

// Write encodes snap on one line.
func (t *Writer) Write(snap *simulation.Snapshot) error {
	st, err := snap.Proto()
	if err != nil {
		return err
	}
	line, err := t.opts.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshalling tick %d: %w", snap.Tick, err)
	}
	if _, err := t.w.Write(line); err != nil {
		return err
	}
	return t.w.WriteByte('\n')
}

func (t *Writer) Flush() error { return t.w.Flush() }

type fileCloser struct {
	t *Writer
	f *os.File
}

func (c fileCloser) Close() error {
	ferr := c.t.Flush()
	if err := c.f.Close(); err != nil && ferr == nil {
		ferr = err
	}
	return ferr
}

// FileName maps a scenario name to the name of its trace file.
func FileName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
	if clean == "" {
		clean = "run"
	}
	return clean + ".jsonl"
}

// Dir returns a sink factory writing one file per scenario into dir.
func Dir(dir string) runner.SinkFactory {
	return func(name string) (runner.Sink, io.Closer, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.Create(filepath.Join(dir, FileName(name)))
		if err != nil {
			return nil, nil, err
		}
		w := NewWriter(f)
		return w, fileCloser{t: w, f: f}, nil
	}
}

// Read decodes every snapshot of a trace.
func Read(r io.Reader) ([]*structpb.Struct, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)

	var out []*structpb.Struct
	for n := 1; sc.Scan(); n++ {
		if len(strings.TrimSpace(sc.Text())) == 0 {
			continue
		}
		st := &structpb.Struct{}
		if err := protojson.Unmarshal(sc.Bytes(), st); err != nil {
			return out, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, st)
	}
	return out, sc.Err()
}
