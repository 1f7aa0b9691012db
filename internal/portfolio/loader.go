package portfolio

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/folio/internal/contracts"
)

// document is the on-disk shape of portfolio.json
// JSON은 YAML의 부분집합이므로 yaml 디코더 하나로 .json/.yaml 모두 처리
type document struct {
	PortfolioName  string        `yaml:"portfolioName"`
	InceptionDate  string        `yaml:"inceptionDate"`
	Benchmark      string        `yaml:"benchmark"`
	InitialCapital *float64      `yaml:"initialCapital"`
	Weights        []weightEntry `yaml:"weights"`
}

type weightEntry struct {
	Ticker string   `yaml:"ticker"`
	Name   string   `yaml:"name"`
	Weight *float64 `yaml:"weight"`
}

// Load reads the portfolio config file and returns the validated Portfolio
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*contracts.Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, contracts.NewConfigError(contracts.StageConfig, err, "failed to read portfolio config %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates portfolio config bytes
func Parse(data []byte) (*contracts.Portfolio, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&doc); err != nil {
		return nil, contracts.NewConfigError(contracts.StageConfig, err, "failed to decode portfolio config")
	}

	p, err := doc.toPortfolio()
	if err != nil {
		return nil, contracts.NewConfigError(contracts.StageConfig, err, "invalid portfolio config")
	}

	if err := Validate(p); err != nil {
		return nil, contracts.NewConfigError(contracts.StageConfig, err, "invalid portfolio config")
	}

	return p, nil
}

func (d *document) toPortfolio() (*contracts.Portfolio, error) {
	if d.InceptionDate == "" {
		return nil, ValidationError{"inceptionDate", "required"}
	}
	inception, err := time.Parse(contracts.DateLayout, strings.TrimSpace(d.InceptionDate))
	if err != nil {
		return nil, ValidationError{"inceptionDate", "must be YYYY-MM-DD"}
	}
	if d.InitialCapital == nil {
		return nil, ValidationError{"initialCapital", "required"}
	}

	p := &contracts.Portfolio{
		Name:           strings.TrimSpace(d.PortfolioName),
		InceptionDate:  inception,
		Benchmark:      strings.TrimSpace(d.Benchmark),
		InitialCapital: *d.InitialCapital,
		Holdings:       make([]contracts.Holding, 0, len(d.Weights)),
	}
	if p.Benchmark == "" {
		p.Benchmark = contracts.DefaultBenchmark
	}

	for i, w := range d.Weights {
		if w.Weight == nil {
			return nil, ValidationError{fmt.Sprintf("weights[%d].weight", i), "required"}
		}
		ticker := strings.TrimSpace(w.Ticker)
		name := strings.TrimSpace(w.Name)
		if name == "" {
			name = ticker
		}
		p.Holdings = append(p.Holdings, contracts.Holding{
			Ticker:       ticker,
			Name:         name,
			TargetWeight: *w.Weight,
		})
	}

	return p, nil
}

// Hash generates SHA256 hash of the portfolio (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(p *contracts.Portfolio) (string, error) {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
