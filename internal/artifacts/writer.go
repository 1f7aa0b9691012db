package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/pkg/logger"
)

// Writer serializes a Valuation into the JSON files served by the API
// ⭐ SSOT: OUT_DIR 파일 쓰기는 여기서만
type Writer struct {
	outDir string
	logger *logger.Logger
}

// NewWriter creates a new artifact writer
func NewWriter(outDir string, log *logger.Logger) *Writer {
	return &Writer{
		outDir: outDir,
		logger: log.WithField("module", "artifacts"),
	}
}

// OutDir returns the output directory
func (w *Writer) OutDir() string {
	return w.outDir
}

// Write writes all seven artifacts and returns their paths.
// 파일 단위로 원자적 교체 (tmp → rename)
func (w *Writer) Write(v *contracts.Valuation, p *contracts.Portfolio) ([]string, error) {
	if v == nil || p == nil {
		return nil, contracts.NewIntegrityError(contracts.StageArtifacts, "nothing to write")
	}
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create out dir: %w", err)
	}

	docs := make(map[string]interface{}, 7)
	order := make([]string, 0, 7)
	for _, r := range contracts.AllRanges() {
		series, ok := v.Series(r)
		if !ok {
			return nil, contracts.NewIntegrityError(contracts.StageArtifacts, "performance series %s missing", r)
		}
		name := PerformanceFile(r)
		docs[name] = NewPerformanceDoc(*series)
		order = append(order, name)
	}
	docs[MetricsFile] = NewMetricsDoc(v, p)
	docs[HoldingsFile] = NewHoldingsDoc(v)
	docs[PositionsFile] = NewPositionsDoc(v)
	order = append(order, MetricsFile, HoldingsFile, PositionsFile)

	paths := make([]string, 0, len(order))
	for _, name := range order {
		path := filepath.Join(w.outDir, name)
		if err := writeJSON(path, docs[name]); err != nil {
			return paths, &contracts.StageError{
				Kind:    contracts.ErrDataIntegrity,
				Stage:   contracts.StageArtifacts,
				Message: "write " + name,
				Cause:   err,
			}
		}
		paths = append(paths, path)
	}

	w.logger.WithFields(map[string]interface{}{
		"out_dir": w.outDir,
		"files":   len(paths),
	}).Info("Artifacts written")
	return paths, nil
}

// AllExist reports whether every artifact is present in dir
func AllExist(dir string) bool {
	for _, name := range FileNames() {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// Missing returns the artifact names absent from dir
func Missing(dir string) []string {
	var missing []string
	for _, name := range FileNames() {
		if _, err := os.Stat(filepath.Join(dir, name)); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, name)
		}
	}
	return missing
}

func writeJSON(path string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
