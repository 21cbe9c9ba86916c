// Package voter drives the commit-reveal vote loop.
package voter

import "fmt"

// periodInfo is the resolved vote-period position for one tick.
type periodInfo struct {
	NextHeight    int64  // height the vote transaction targets
	CurrentPeriod uint64 // floor(NextHeight / periodLength)
	IndexInPeriod uint64 // NextHeight mod periodLength
	Proceed       bool
	SkipReason    string
}

// resolvePeriod computes the current vote period from the chain tip and
// decides whether this tick votes. It runs before any price-source work.
//
//   - already voted this period: skip
//   - fewer than holdOff blocks left before the boundary: skip (not enough
//     room for inclusion plus confirmation)
//   - previous period set but not exactly one behind: the pending reveal can
//     no longer be submitted in time, ErrRevealMiss
func resolvePeriod(tipHeight int64, periodLength, prevPeriod, holdOff uint64) (periodInfo, error) {
	info := periodInfo{
		NextHeight:    tipHeight + 1,
		CurrentPeriod: uint64(tipHeight+1) / periodLength,
		IndexInPeriod: uint64(tipHeight+1) % periodLength,
	}

	if prevPeriod != 0 && info.CurrentPeriod == prevPeriod {
		info.SkipReason = "already voted this period"
		return info, nil
	}

	if periodLength-info.IndexInPeriod < holdOff {
		info.SkipReason = "too close to period boundary"
		return info, nil
	}

	if prevPeriod != 0 && info.CurrentPeriod-prevPeriod != 1 {
		return info, fmt.Errorf("%w: previous period %d, current period %d",
			ErrRevealMiss, prevPeriod, info.CurrentPeriod)
	}

	info.Proceed = true
	return info, nil
}
