package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/folio/internal/api"
	"github.com/wonny/folio/internal/api/handlers"
	"github.com/wonny/folio/internal/artifacts"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `산출물 조회 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                  - Health check
  GET  /api/performance/{range} - 성과 지수 (1m, 3m, 1y, max)
  GET  /api/metrics             - 지표 요약
  GET  /api/holdings            - 보유 현황
  GET  /api/positions           - 포지션
  POST /api/build?force=true    - 빌드 실행 (동시에 하나만)
  GET  /data/*.json             - 정적 산출물

Example:
  go run ./cmd/folio api
  go run ./cmd/folio api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== folio API Server ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	outDir := a.cfg.Portfolio.OutDir
	router := api.NewRouter(
		handlers.NewArtifactHandler(artifacts.NewReader(outDir), a.log),
		handlers.NewBuildHandler(a.runner, a.log),
		outDir,
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	if missing := artifacts.Missing(outDir); len(missing) > 0 {
		PrintWarning(fmt.Sprintf("산출물 없음 (%d개). POST /api/build 또는 folio build 실행", len(missing)))
	}
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
