package council

import (
	"context"

	"github.com/relayforge/conductor/internal/model"
)

// dispatch runs the quota-based batched dispatch: each batch launches
// min(needed, remaining pool) missions sequentially through Forge,
// counting successes, until either the adjusted target is met or the
// pool is exhausted. Total attempts are bounded by the pool size, so a
// run of all-failing missions cannot loop forever.
func (c *Council) dispatch(ctx context.Context, candidates []model.ProposalCandidate, alreadyStaged int) model.ExecutionReport {
	pool := dispatchPool(candidates, c.Staging)

	target := c.Cfg.TargetSuccess
	adjustedTarget := target - alreadyStaged
	if adjustedTarget < 0 {
		adjustedTarget = 0
	}

	report := model.ExecutionReport{
		Date:     today(),
		Target:   target,
		PoolSize: len(pool),
	}

	achieved := 0
	idx := 0
	for achieved < adjustedTarget && idx < len(pool) && report.TotalAttempted < len(pool) {
		needed := adjustedTarget - achieved
		remaining := len(pool) - idx
		batchSize := needed
		if remaining < batchSize {
			batchSize = remaining
		}
		report.Batches++

		for i := 0; i < batchSize && idx < len(pool); i++ {
			mission := pool[idx].Mission
			idx++
			report.TotalAttempted++

			result := c.Forge.RunMission(ctx, mission)
			report.Results = append(report.Results, result)
			if result.Status == "SUCCESS" {
				achieved++
			}
		}
	}

	report.Achieved = achieved
	return report
}

// stagingRejectChecker narrows staging.Store to the one method
// dispatchPool needs, so it stays trivially testable.
type stagingRejectChecker interface {
	IsRejected(title string) bool
}

// dispatchPool filters candidates down to the ones actually eligible
// for dispatch: a TRASH cross-validation verdict or a previously
// rejected title never reaches Forge.
func dispatchPool(candidates []model.ProposalCandidate, rejects stagingRejectChecker) []model.ProposalCandidate {
	pool := make([]model.ProposalCandidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Verdict == "TRASH" {
			continue
		}
		if rejects.IsRejected(cand.Mission.Title) {
			continue
		}
		pool = append(pool, cand)
	}
	return pool
}
