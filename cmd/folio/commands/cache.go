package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/folio/internal/portfolio"
	"github.com/wonny/folio/internal/pricecache"
	"github.com/wonny/folio/pkg/logger"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "가격 캐시 관리",
	Long: `가격 캐시(CACHE_BACKEND)를 조회하거나 비웁니다.

캐시 키는 티커 집합 + 시작일의 md5 fingerprint 입니다.
만료가 없으므로 최신 가격이 필요하면 build --force-refresh 또는 cache clear.

Subcommands:
  ls      - 캐시 항목 목록
  clear   - 전체 삭제

Example:
  go run ./cmd/folio cache ls
  go run ./cmd/folio cache clear`,
}

var (
	cacheLsCmd = &cobra.Command{
		Use:   "ls",
		Short: "캐시 항목 목록",
		RunE:  runCacheLs,
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "캐시 전체 삭제",
		RunE:  runCacheClear,
	}
)

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheLsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func openCache(ctx context.Context) (*pricecache.PriceCache, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return pricecache.Open(ctx, cfg, logger.New(cfg))
}

func runCacheLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cache, closeCache, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	entries, err := cache.Store().List(ctx)
	if err != nil {
		return fmt.Errorf("list cache: %w", err)
	}

	current := currentFingerprint()
	fmt.Printf("Backend: %s\n\n", cache.Store().Name())
	if len(entries) == 0 {
		PrintInfo("캐시 비어 있음")
		return nil
	}

	widths := []int{34, 10, 20, 7}
	PrintTableHeader([]string{"FINGERPRINT", "SIZE", "STORED AT", "CURRENT"}, widths)
	for _, e := range entries {
		storedAt := "-"
		if !e.StoredAt.IsZero() {
			storedAt = e.StoredAt.Format("2006-01-02 15:04:05")
		}
		mark := ""
		if e.Fingerprint == current {
			mark = "*"
		}
		PrintTableRow([]string{e.Fingerprint, humanBytes(e.Size), storedAt, mark}, widths)
	}
	fmt.Printf("\n%d entries\n", len(entries))
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cache, closeCache, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	removed, err := cache.Store().Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	PrintSuccess(fmt.Sprintf("Removed %d cache entries (%s)", removed, cache.Store().Name()))
	return nil
}

// currentFingerprint returns the fingerprint of the configured portfolio, "" if unreadable
func currentFingerprint() string {
	cfg, err := loadConfig()
	if err != nil {
		return ""
	}
	p, err := portfolio.Load(cfg.Portfolio.Path)
	if err != nil {
		return ""
	}
	return pricecache.Fingerprint(p.Universe(), p.InceptionDate)
}
