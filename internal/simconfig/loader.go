package simconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load YAML 파일을 읽어 Config와 원본 바이트 반환
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, data, nil
}

// Parse YAML 바이트 → Config (생략된 필드는 Default 값)
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Hash Config의 SHA256 (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// ModelHash 국면 모델에 영향을 주는 필드만의 해시 (모델 캐시 키)
// 시뮬레이션 길이, 생성기 종류 등이 바뀌어도 모델은 재사용
func ModelHash(cfg *Config) (string, error) {
	key := struct {
		Seed          int64   `json:"seed"`
		BlockLengths  []int   `json:"block_lengths"`
		Count         int     `json:"count"`
		MaxIterations int     `json:"max_iterations"`
		Tolerance     float64 `json:"tolerance"`
	}{
		Seed:          cfg.Seed,
		BlockLengths:  cfg.Bootstrap.BlockLengths,
		Count:         cfg.Regimes.Count,
		MaxIterations: cfg.Regimes.MaxIterations,
		Tolerance:     cfg.Regimes.Tolerance,
	}
	jsonBytes, err := json.Marshal(key)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
