package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/folio/internal/scheduler"
	"github.com/wonny/folio/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 빌드 스케줄러를 시작하거나 즉시 실행합니다.

등록되는 작업:
- portfolio_build: BUILD_SCHEDULE (기본 평일 22:30, 초 포함 6필드)

Subcommands:
  start   - 스케줄러 시작 (Ctrl+C로 종료)
  run     - 빌드 작업 즉시 실행

Example:
  go run ./cmd/folio scheduler start
  go run ./cmd/folio scheduler run`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runSchedulerStart,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run",
		Short: "빌드 작업 즉시 실행",
		RunE:  runSchedulerRun,
	}

	schedulerRetries    int
	schedulerRetryDelay time.Duration
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().IntVar(&schedulerRetries, "retries", 0, "실패 시 재시도 횟수")
	schedulerCmd.PersistentFlags().DurationVar(&schedulerRetryDelay, "retry-delay", 10*time.Minute, "재시도 간격")
}

func newScheduler(a *app) (*scheduler.Scheduler, error) {
	s := scheduler.New(a.log).WithRetry(schedulerRetries, schedulerRetryDelay)
	if err := s.AddJob(jobs.NewBuildJob(a.runner, a.cfg.BuildSchedule, a.cfg.BuildForceRefresh, a.log)); err != nil {
		return nil, err
	}
	return s, nil
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	fmt.Println("=== folio Scheduler ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := newScheduler(a)
	if err != nil {
		return err
	}
	s.Start()

	if next, ok := s.NextRun("portfolio_build"); ok {
		PrintKeyValue("Schedule", a.cfg.BuildSchedule, 10)
		PrintKeyValue("Next run", next.Format(time.RFC3339), 10)
		PrintKeyValue("Refresh", fmt.Sprintf("%v", a.cfg.BuildForceRefresh), 10)
	}
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.Stop()
	return nil
}

func runSchedulerRun(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := newScheduler(a)
	if err != nil {
		return err
	}

	result, err := s.RunJob("portfolio_build")
	if err != nil {
		return err
	}
	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempt(s): %s", result.JobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", result.JobName)
	}
	PrintSuccess(fmt.Sprintf("%s completed in %.2fs", result.JobName, result.Duration.Seconds()))
	return nil
}
