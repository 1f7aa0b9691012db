package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds
// ⭐ SSOT: errors.Is(err, ErrXxx)로 분류. 메시지 문자열 비교 금지
var (
	// ErrTransientFetch 단일 업스트림 시도 실패 (재시도 대상, fetcher 밖으로 나가지 않음)
	ErrTransientFetch = errors.New("transient fetch failure")

	// ErrFetchExhausted 배치 재시도 소진
	ErrFetchExhausted = errors.New("fetch retries exhausted")

	// ErrDataIntegrity 가격 데이터로 평가 불가 (빈 테이블, 공통 날짜 없음, 벤치마크 부재)
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrConfigInvariant 포트폴리오 설정 위반 (비중 합, 음수 비중, 필수 필드)
	ErrConfigInvariant = errors.New("config invariant violation")
)

// StageError carries the kind of failure plus its pipeline context.
// errors.Is matches both Kind and Cause; errors.As exposes tickers/attempts.
type StageError struct {
	Kind     error
	Stage    Stage
	Tickers  []string
	Attempts int
	Message  string
	Cause    error
}

func (e *StageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Stage.String())
	b.WriteString(": ")
	if e.Message != "" {
		b.WriteString(e.Message)
	} else if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if len(e.Tickers) > 0 {
		fmt.Fprintf(&b, " [tickers=%s]", strings.Join(e.Tickers, ","))
	}
	if e.Attempts > 0 {
		fmt.Fprintf(&b, " [attempts=%d]", e.Attempts)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause
func (e *StageError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewIntegrityError creates a data integrity error for stage
func NewIntegrityError(stage Stage, format string, args ...interface{}) *StageError {
	return &StageError{
		Kind:    ErrDataIntegrity,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewConfigError creates a config invariant error for stage
func NewConfigError(stage Stage, cause error, format string, args ...interface{}) *StageError {
	return &StageError{
		Kind:    ErrConfigInvariant,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// KindOf returns the sentinel kind of err, or nil if unclassified
func KindOf(err error) error {
	for _, kind := range []error{ErrConfigInvariant, ErrDataIntegrity, ErrFetchExhausted, ErrTransientFetch} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
