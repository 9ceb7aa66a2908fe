package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockUniverse_Deterministic(t *testing.T) {
	a := MockUniverse(1337, 300)
	b := MockUniverse(1337, 300)
	assert.Equal(t, a, b)

	c := MockUniverse(42, 300)
	assert.NotEqual(t, a, c)
}

func TestMockUniverse_PrefixStable(t *testing.T) {
	small := MockUniverse(1337, 100)
	large := MockUniverse(1337, 1200)

	require.Len(t, large, 1200)
	assert.Equal(t, small, large[:100])
}

func TestMockUniverse_Invariants(t *testing.T) {
	long, short := 0, 0

	for i, m := range MockUniverse(1337, 1200) {
		assert.True(t, m.HasPositivePrices(), "market %d", i)
		assert.True(t, m.Active)
		assert.GreaterOrEqual(t, m.Volume, 1000.0)
		assert.LessOrEqual(t, m.Volume, 100000.0)
		assert.LessOrEqual(t, m.YesBid, m.YesAsk)
		assert.LessOrEqual(t, m.NoBid, m.NoAsk)
		assert.LessOrEqual(t, m.YesAsk, 0.999)
		assert.GreaterOrEqual(t, m.NoBid, 0.001)

		if m.LongSum() < 0.99 {
			long++
		}
		if m.ShortSum() > 1.01 {
			short++
		}
	}

	assert.Positive(t, long, "universe should contain long candidates")
	assert.Positive(t, short, "universe should contain short candidates")
}

func TestMockUniverse_Naming(t *testing.T) {
	m := MockUniverse(1, 3)

	assert.Equal(t, "mock-2", m[2].ID)
	assert.Equal(t, "cond-2", m[2].ConditionID)
	assert.Equal(t, "Mock Market #2", m[2].Question)
}

func TestMockUniverse_Empty(t *testing.T) {
	assert.Nil(t, MockUniverse(1, 0))
}
