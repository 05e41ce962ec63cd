package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/flipscout/flipscout/internal/model"
)

// Writer writes run artifacts into one output directory, creating it on
// first use.
type Writer struct {
	dir string
}

// NewWriter builds a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteCandidates writes an un-enriched ranked batch to
// candidates_<runID>.csv and returns the file path.
func (w *Writer) WriteCandidates(runID string, rows []model.CandidateRow) (string, error) {
	return w.writeCSV(fmt.Sprintf("candidates_%s.csv", runID), rows)
}

// WriteEnriched writes an enriched ranked batch to candidates_<runID>.csv
// and returns the file path.
func (w *Writer) WriteEnriched(runID string, rows []EnrichedRow) (string, error) {
	return w.writeCSV(fmt.Sprintf("candidates_%s.csv", runID), rows)
}

func (w *Writer) writeCSV(name string, rows any) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", eris.Wrap(err, "output: create output dir")
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return "", eris.Wrap(err, "output: encode csv")
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "output: write %s", name)
	}
	return path, nil
}

// RawLog appends raw listing payloads to a JSONL file, one object per line.
// The file grows across runs.
type RawLog struct {
	f *os.File
}

// OpenRawLog opens (creating if needed) the append-only raw log at path.
func OpenRawLog(path string) (*RawLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrap(err, "output: create raw log dir")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrap(err, "output: open raw log")
	}
	return &RawLog{f: f}, nil
}

// Append marshals v and writes it as one JSON line.
func (r *RawLog) Append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "output: encode raw listing")
	}
	return r.AppendRaw(data)
}

// AppendRaw writes an already-encoded JSON payload verbatim as one line,
// preserving fields no local type models.
func (r *RawLog) AppendRaw(line []byte) error {
	if _, err := r.f.Write(append(line, '\n')); err != nil {
		return eris.Wrap(err, "output: append raw listing")
	}
	return nil
}

// Close closes the underlying file.
func (r *RawLog) Close() error {
	return r.f.Close()
}
