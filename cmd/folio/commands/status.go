package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/folio/internal/artifacts"
	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/portfolio"
	"github.com/wonny/folio/internal/pricecache"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/database"
	"github.com/wonny/folio/pkg/logger"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "설정/산출물/캐시 상태",
	Long: `현재 설정, 포트폴리오 검증 결과, 산출물 존재 여부, 캐시 상태를 표시합니다.

Example:
  go run ./cmd/folio status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	fmt.Println("=== folio Status ===")

	// Config
	PrintSeparator()
	PrintKeyValue("Env", cfg.Env, 14)
	PrintKeyValue("Portfolio", cfg.Portfolio.Path, 14)
	PrintKeyValue("Out dir", cfg.Portfolio.OutDir, 14)
	PrintKeyValue("Cache", cfg.Cache.Backend, 14)
	PrintKeyValue("Schedule", cfg.BuildSchedule, 14)

	// Portfolio
	PrintSeparator()
	p, err := portfolio.Load(cfg.Portfolio.Path)
	if err != nil {
		PrintError(err.Error())
	} else {
		hash, _ := portfolio.Hash(p)
		PrintKeyValue("Name", p.Name, 14)
		PrintKeyValue("Inception", p.InceptionDate.Format(contracts.DateLayout), 14)
		PrintKeyValue("Holdings", fmt.Sprintf("%d (weight sum %.6f)", len(p.Holdings), p.TotalWeight()), 14)
		PrintKeyValue("Universe", fmt.Sprintf("%v", p.Universe()), 14)
		PrintKeyValue("Fingerprint", pricecache.Fingerprint(p.Universe(), p.InceptionDate), 14)
		PrintKeyValue("Config hash", hash, 14)
	}

	// Artifacts
	PrintSeparator()
	if missing := artifacts.Missing(cfg.Portfolio.OutDir); len(missing) > 0 {
		PrintWarning(fmt.Sprintf("산출물 누락 %d개", len(missing)))
		PrintList(missing)
	} else if m, err := artifacts.NewReader(cfg.Portfolio.OutDir).Metrics(); err == nil {
		PrintSuccess(fmt.Sprintf("Artifacts as of %s (AUM $%.2f, return %.3f%%)", m.AsOf, m.AUMUsd, m.TotalReturnPct))
	}

	// Cache
	PrintSeparator()
	log := logger.New(cfg)
	cache, closeCache, err := pricecache.Open(ctx, cfg, log)
	if err != nil {
		PrintError(err.Error())
		return nil
	}
	defer closeCache()

	entries, err := cache.Store().List(ctx)
	if err != nil {
		PrintError(err.Error())
	} else {
		var total int64
		for _, e := range entries {
			total += e.Size
		}
		PrintKeyValue("Cache entries", fmt.Sprintf("%d (%s)", len(entries), humanBytes(total)), 14)
	}

	if cfg.Cache.Backend == config.CacheBackendPostgres {
		printDatabaseHealth(ctx, cfg)
	}
	return nil
}

func printDatabaseHealth(ctx context.Context, cfg *config.Config) {
	db, err := database.New(ctx, cfg)
	if err != nil {
		PrintError(err.Error())
		return
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("database unhealthy: %v", err))
		return
	}
	PrintKeyValue("Database", fmt.Sprintf("healthy (%v, %d conns)", status.ResponseTime, status.TotalConns), 14)
}
