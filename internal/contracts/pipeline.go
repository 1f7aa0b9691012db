package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 에러, 실행 결과에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   config → universe → prices → valuation → artifacts

// Stage represents a pipeline stage
type Stage string

const (
	// StageConfig 포트폴리오 설정 로드 및 검증
	// 위치: internal/portfolio/
	StageConfig Stage = "config"

	// StageUniverse 평가 대상 티커 집합 (보유 종목 + 벤치마크)
	StageUniverse Stage = "universe"

	// StageFetch 단일 배치 업스트림 조회 (재시도 포함)
	// 위치: internal/prices/fetcher.go
	StageFetch Stage = "fetch"

	// StagePrices 배치 조립, 병합, 캐시
	// 위치: internal/prices/assembler.go
	StagePrices Stage = "prices"

	// StageValuation 재조정, 가치 시계열, 지표, 포지션
	// 위치: internal/valuation/
	StageValuation Stage = "valuation"

	// StageArtifacts JSON 산출물 기록
	// 위치: internal/artifacts/
	StageArtifacts Stage = "artifacts"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// AllStages returns stages in execution order
func AllStages() []Stage {
	return []Stage{
		StageConfig,
		StageUniverse,
		StagePrices,
		StageValuation,
		StageArtifacts,
	}
}

// RunStatus is the outcome of a successful run
type RunStatus string

const (
	// RunStatusUpdated 모든 산출물이 새로 기록됨
	RunStatusUpdated RunStatus = "updated"

	// RunStatusKeptLastGood 가격 단계 실패, 기존 산출물 유지 (soft degradation)
	RunStatusKeptLastGood RunStatus = "kept_last_good"
)
