package voter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePeriod(t *testing.T) {
	const periodLength = 5

	tests := []struct {
		name       string
		tipHeight  int64
		prevPeriod uint64
		holdOff    uint64

		proceed       bool
		skipReason    string
		currentPeriod uint64
		indexInPeriod uint64
	}{
		{
			name:      "fresh state start of period",
			tipHeight: 99, // next height 100, period 20, index 0
			holdOff:   2,

			proceed:       true,
			currentPeriod: 20,
			indexInPeriod: 0,
		},
		{
			name:       "already voted this period",
			tipHeight:  100, // next height 101, period 20
			prevPeriod: 20,
			holdOff:    2,

			proceed:       false,
			skipReason:    "already voted this period",
			currentPeriod: 20,
			indexInPeriod: 1,
		},
		{
			name:       "too close to boundary",
			tipHeight:  103, // next height 104, index 4, 1 block left
			prevPeriod: 19,
			holdOff:    2,

			proceed:       false,
			skipReason:    "too close to period boundary",
			currentPeriod: 20,
			indexInPeriod: 4,
		},
		{
			name:      "last allowed index with holdoff 2",
			tipHeight: 102, // next height 103, index 3, 2 blocks left
			holdOff:   2,

			proceed:       true,
			currentPeriod: 20,
			indexInPeriod: 3,
		},
		{
			name:       "consecutive period proceeds",
			tipHeight:  104, // next height 105, period 21
			prevPeriod: 20,
			holdOff:    2,

			proceed:       true,
			currentPeriod: 21,
			indexInPeriod: 0,
		},
		{
			name:      "larger holdoff skips earlier",
			tipHeight: 101, // next height 102, index 2, 3 blocks left
			holdOff:   4,

			proceed:       false,
			skipReason:    "too close to period boundary",
			currentPeriod: 20,
			indexInPeriod: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := resolvePeriod(tt.tipHeight, periodLength, tt.prevPeriod, tt.holdOff)
			require.NoError(t, err)

			assert.Equal(t, tt.tipHeight+1, info.NextHeight)
			assert.Equal(t, tt.currentPeriod, info.CurrentPeriod)
			assert.Equal(t, tt.indexInPeriod, info.IndexInPeriod)
			assert.Equal(t, tt.proceed, info.Proceed)
			assert.Equal(t, tt.skipReason, info.SkipReason)
		})
	}
}

func TestResolvePeriodRevealMiss(t *testing.T) {
	const periodLength = 5

	// Two periods ahead of the last vote
	_, err := resolvePeriod(109, periodLength, 20, 2) // next height 110, period 22
	assert.ErrorIs(t, err, ErrRevealMiss)

	// Chain behind the last vote (after an endpoint failover to a lagging
	// node) is also a miss
	_, err = resolvePeriod(94, periodLength, 20, 2) // next height 95, period 19
	assert.ErrorIs(t, err, ErrRevealMiss)
}

// The already-voted check runs before the gap check: a stale-looking period
// equal to the previous one skips instead of erroring.
func TestResolvePeriodSkipBeforeGapCheck(t *testing.T) {
	info, err := resolvePeriod(100, 5, 20, 2)
	require.NoError(t, err)
	assert.False(t, info.Proceed)
}
