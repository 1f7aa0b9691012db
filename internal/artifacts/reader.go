package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wonny/folio/internal/contracts"
)

// ErrNotBuilt is returned when an artifact has not been written yet
var ErrNotBuilt = errors.New("artifact not built")

// Reader reads previously written artifacts (API 서빙용)
type Reader struct {
	dir string
}

// NewReader creates a reader over dir
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// Raw returns the bytes of a named artifact
func (r *Reader) Raw(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotBuilt)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Performance decodes performance.<range>.json
func (r *Reader) Performance(rng contracts.Range) (*PerformanceDoc, error) {
	var doc PerformanceDoc
	if err := r.decode(PerformanceFile(rng), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Metrics decodes metrics.json
func (r *Reader) Metrics() (*MetricsDoc, error) {
	var doc MetricsDoc
	if err := r.decode(MetricsFile, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Holdings decodes holdings.json
func (r *Reader) Holdings() (*HoldingsDoc, error) {
	var doc HoldingsDoc
	if err := r.decode(HoldingsFile, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Positions decodes positions.json
func (r *Reader) Positions() (*PositionsDoc, error) {
	var doc PositionsDoc
	if err := r.decode(PositionsFile, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Reader) decode(name string, v interface{}) error {
	data, err := r.Raw(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
