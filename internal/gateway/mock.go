package gateway

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mselser95/polyarb-agent/pkg/types"
)

// MockUniverse synthesizes a reproducible market universe. Each market gets a
// YES mid away from 0.5, a NO mid carrying up to ±3% inefficiency and a
// small bid/ask spread, so a share of the universe crosses the arbitrage lines.
// The same seed always yields the same universe, and a smaller size is a
// prefix of a larger one.
func MockUniverse(seed int64, size int) []types.BinaryMarket {
	if size <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // simulation data
	out := make([]types.BinaryMarket, 0, size)

	for i := 0; i < size; i++ {
		volume := float64(1_000 + rng.Intn(100_000-1_000+1))

		midYes := uniform(rng, 0.05, 0.95)
		midNo := clamp(1.0-midYes+uniform(rng, -0.03, 0.03), 0.001, 0.999)
		spread := uniform(rng, 0.001, 0.01)

		out = append(out, types.BinaryMarket{
			ID:          fmt.Sprintf("mock-%d", i),
			ConditionID: fmt.Sprintf("cond-%d", i),
			Question:    fmt.Sprintf("Mock Market #%d", i),
			Volume:      volume,
			YesBid:      clamp(midYes-spread, 0.001, 0.999),
			YesAsk:      clamp(midYes+spread, 0.001, 0.999),
			NoBid:       clamp(midNo-spread, 0.001, 0.999),
			NoAsk:       clamp(midNo+spread, 0.001, 0.999),
			Active:      true,
		})
	}

	return out
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
