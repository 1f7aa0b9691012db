package prices

import (
	"context"
	"math"
	"time"

	"github.com/wonny/folio/pkg/config"
)

// BackoffPolicy computes the wait between fetch attempts
type BackoffPolicy struct {
	Base      float64       // 초 단위 지수 밑
	MaxJitter time.Duration // jitter 상한
	MaxDelay  time.Duration // 대기 상한
}

// DefaultBackoffPolicy is 2^attempt s + U[0, 1.5s), capped at 90s
var DefaultBackoffPolicy = BackoffPolicy{
	Base:      2.0,
	MaxJitter: 1500 * time.Millisecond,
	MaxDelay:  90 * time.Second,
}

// BackoffPolicyFromConfig builds the policy from fetch config
func BackoffPolicyFromConfig(cfg config.FetchConfig) BackoffPolicy {
	return BackoffPolicy{
		Base:      cfg.BackoffBase,
		MaxJitter: cfg.BackoffJitter,
		MaxDelay:  cfg.BackoffMax,
	}
}

// Delay returns min(Base^attempt + u*MaxJitter, MaxDelay).
// u ∈ [0,1)는 jitter 난수. 순수 함수 (테스트 가능)
func (p BackoffPolicy) Delay(attempt int, u float64) time.Duration {
	secs := math.Pow(p.Base, float64(attempt)) + u*p.MaxJitter.Seconds()
	if p.MaxDelay > 0 && secs >= p.MaxDelay.Seconds() {
		return p.MaxDelay
	}
	if secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the context-aware default SleepFunc
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
