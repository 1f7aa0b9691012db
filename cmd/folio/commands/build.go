package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/pipeline"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "산출물 빌드",
	Long: `가격을 조회(또는 캐시 사용)하고 평가 후 JSON 산출물을 기록합니다.

산출물 (OUT_DIR):
  performance.{1m,3m,1y,max}.json
  metrics.json
  holdings.json
  positions.json

가격 조회가 실패해도 기존 산출물 7개가 모두 있으면
기존 산출물을 유지하고 성공으로 종료합니다 (kept_last_good).

Example:
  go run ./cmd/folio build
  go run ./cmd/folio build --force-refresh
  go run ./cmd/folio build --portfolio data/portfolio.yaml --out public/data`,
	RunE: runBuild,
}

var (
	forceRefresh bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "캐시 무시하고 재조회")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.runner.Run(ctx, pipeline.RunConfig{ForceRefresh: forceRefresh})
	if err != nil {
		PrintError(err.Error())
		return err
	}

	printRunResult(result)
	return nil
}

func printRunResult(result *pipeline.RunResult) {
	PrintDoubleSeparator()
	fmt.Println("  Build")
	PrintSeparator()
	PrintKeyValue("Run ID", result.RunID, 12)
	PrintKeyValue("Status", string(result.Status), 12)
	PrintKeyValue("Duration", fmt.Sprintf("%.2fs", result.Duration.Seconds()), 12)

	if result.Status == contracts.RunStatusKeptLastGood {
		PrintWarning("가격 조회 실패, 기존 산출물 유지")
		return
	}

	if v := result.Valuation; v != nil {
		PrintKeyValue("Entry date", v.Snapshot.EntryDate.Format(contracts.DateLayout), 12)
		PrintKeyValue("Valued at", v.Snapshot.ValuationDate.Format(contracts.DateLayout), 12)
		PrintKeyValue("AUM", fmt.Sprintf("$%.2f", v.Metrics.AUM), 12)
		PrintKeyValue("Return", fmt.Sprintf("%.3f%%", v.Metrics.TotalReturnPct), 12)
	}
	if len(result.Dropped) > 0 {
		PrintWarning(fmt.Sprintf("제외된 티커 (가격 없음): %v", result.Dropped))
	}

	PrintSeparator()
	PrintList(result.Paths)
	PrintSuccess("Artifacts written")
}
