package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/pipeline"
	"github.com/wonny/folio/pkg/logger"
)

// Builder runs one build (pipeline.Runner)
type Builder interface {
	Run(ctx context.Context, cfg pipeline.RunConfig) (*pipeline.RunResult, error)
}

// BuildHandler triggers builds on demand
// 한 프로세스에서 빌드는 동시에 하나만 실행 (진행 중이면 409)
type BuildHandler struct {
	builder Builder
	mu      sync.Mutex
	logger  *logger.Logger
}

// NewBuildHandler creates a new build handler
func NewBuildHandler(builder Builder, log *logger.Logger) *BuildHandler {
	return &BuildHandler{
		builder: builder,
		logger:  log,
	}
}

// BuildResponse is the body of a build response
type BuildResponse struct {
	RunID           string   `json:"runId"`
	Status          string   `json:"status,omitempty"`
	CompletedStages []string `json:"completedStages"`
	Dropped         []string `json:"missingTickersDropped"`
	DurationMs      int64    `json:"durationMs"`
	Error           string   `json:"error,omitempty"`
}

// Build runs the pipeline
// POST /api/build?force=true
func (h *BuildHandler) Build(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "force must be a boolean")
			return
		}
		force = parsed
	}

	if !h.mu.TryLock() {
		respondError(w, http.StatusConflict, "A build is already running")
		return
	}
	defer h.mu.Unlock()

	// 클라이언트 연결이 끊겨도 빌드는 끝까지 진행
	ctx := context.WithoutCancel(r.Context())
	result, err := h.builder.Run(ctx, pipeline.RunConfig{ForceRefresh: force})

	resp := BuildResponse{
		CompletedStages: []string{},
		Dropped:         []string{},
	}
	if result != nil {
		resp.RunID = result.RunID
		resp.Status = string(result.Status)
		resp.DurationMs = result.Duration.Milliseconds()
		if result.CompletedStages != nil {
			resp.CompletedStages = result.CompletedStages
		}
		if result.Dropped != nil {
			resp.Dropped = result.Dropped
		}
	}

	if err != nil {
		h.logger.WithError(err).WithField("force", force).Error("Build failed")
		resp.Error = err.Error()
		respondJSON(w, statusFor(err), resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// statusFor maps an error kind to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrConfigInvariant):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contracts.ErrFetchExhausted):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
