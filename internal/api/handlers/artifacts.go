package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/folio/internal/artifacts"
	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/pkg/logger"
)

// ArtifactHandler serves the built JSON artifacts as-is
// ⭐ SSOT: 산출물 조회 API 핸들러는 이 구조체에서만
type ArtifactHandler struct {
	reader *artifacts.Reader
	logger *logger.Logger
}

// NewArtifactHandler creates a new artifact handler
func NewArtifactHandler(reader *artifacts.Reader, log *logger.Logger) *ArtifactHandler {
	return &ArtifactHandler{
		reader: reader,
		logger: log,
	}
}

// GetPerformance returns the performance series of a range
// GET /api/performance/{range}
func (h *ArtifactHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	rng, ok := contracts.ParseRange(mux.Vars(r)["range"])
	if !ok {
		respondError(w, http.StatusBadRequest, "range must be one of 1m, 3m, 1y, max")
		return
	}
	h.serve(w, artifacts.PerformanceFile(rng))
}

// GetMetrics returns the metrics summary
// GET /api/metrics
func (h *ArtifactHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.serve(w, artifacts.MetricsFile)
}

// GetHoldings returns the holdings view
// GET /api/holdings
func (h *ArtifactHandler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	h.serve(w, artifacts.HoldingsFile)
}

// GetPositions returns the positions view
// GET /api/positions
func (h *ArtifactHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	h.serve(w, artifacts.PositionsFile)
}

func (h *ArtifactHandler) serve(w http.ResponseWriter, name string) {
	body, err := h.reader.Raw(name)
	if errors.Is(err, artifacts.ErrNotBuilt) {
		respondError(w, http.StatusNotFound, name+" has not been built yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("artifact", name).Error("Failed to read artifact")
		respondError(w, http.StatusInternalServerError, "Failed to read "+name)
		return
	}
	respondRaw(w, http.StatusOK, body)
}
