package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/folio/internal/pipeline"
	"github.com/wonny/folio/pkg/logger"
)

// Builder runs one build (pipeline.Runner)
type Builder interface {
	Run(ctx context.Context, cfg pipeline.RunConfig) (*pipeline.RunResult, error)
}

// BuildJob rebuilds the artifacts on BUILD_SCHEDULE
// ⭐ SSOT: 정기 빌드 스케줄은 이 Job에서만
// 캐시 키는 (티커, 시작일)뿐이라 forceRefresh 없이는 새 종가를 받지 못한다
type BuildJob struct {
	builder      Builder
	schedule     string
	forceRefresh bool
	logger       *logger.Logger
}

// NewBuildJob creates a new build job (forceRefresh: BUILD_FORCE_REFRESH)
func NewBuildJob(builder Builder, schedule string, forceRefresh bool, log *logger.Logger) *BuildJob {
	return &BuildJob{
		builder:      builder,
		schedule:     schedule,
		forceRefresh: forceRefresh,
		logger:       log.WithField("job", "portfolio_build"),
	}
}

// Name returns the job name
func (j *BuildJob) Name() string {
	return "portfolio_build"
}

// Schedule returns the cron schedule (기본: 평일 22:30, 미국 장 마감 후)
func (j *BuildJob) Schedule() string {
	return j.schedule
}

// Run executes one build
func (j *BuildJob) Run(ctx context.Context) error {
	j.logger.WithField("force_refresh", j.forceRefresh).Info("Starting scheduled build")

	result, err := j.builder.Run(ctx, pipeline.RunConfig{ForceRefresh: j.forceRefresh})
	if err != nil {
		return fmt.Errorf("scheduled build failed: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"status":  string(result.Status),
		"dropped": result.Dropped,
	}).Info("Scheduled build completed")
	return nil
}
