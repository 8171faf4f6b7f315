package scenario

import "math/rand"

// golden 64비트 황금비 상수 (splitmix64 증분)
const golden = 0x9E3779B97F4A7C15

// Seed 전역 seed hint와 반복 번호를 섞어 반복별 seed 생성
// 실행 순서·워커 수와 무관하게 같은 (hint, iteration) → 같은 seed
func Seed(hint int64, iteration int) int64 {
	return int64(splitmix64(uint64(hint) + uint64(iteration+1)*golden))
}

// NewRand 반복 전용 난수 생성기 (고루틴 간 공유 금지)
func NewRand(hint int64, iteration int) *rand.Rand {
	return rand.New(rand.NewSource(Seed(hint, iteration)))
}

func splitmix64(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}
