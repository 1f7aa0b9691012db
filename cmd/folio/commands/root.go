package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	portfolioPath string
	outDir        string
	cacheBackend  string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "folio - 포트폴리오 성과 산출기",
	Long: `folio CLI

포트폴리오 설정(비중, 시작일, 초기 자본)과 일별 수정주가로
성과 지수, 지표, 보유/포지션 JSON 산출물을 만든다.

파이프라인:
  config → universe → prices → valuation → artifacts

Usage:
  go run ./cmd/folio [command]

Examples:
  go run ./cmd/folio build
  go run ./cmd/folio build --force-refresh
  go run ./cmd/folio cache ls
  go run ./cmd/folio api
  go run ./cmd/folio scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags (환경변수보다 우선)
	rootCmd.PersistentFlags().StringVar(&portfolioPath, "portfolio", "", "portfolio config file (default PORTFOLIO_PATH)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "", "artifact output directory (default OUT_DIR)")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache-backend", "", "file|memory|redis|postgres (default CACHE_BACKEND)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
