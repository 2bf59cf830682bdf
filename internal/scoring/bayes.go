package scoring

import (
	"math"

	"github.com/localeintel/pulse/internal/types"
)

// sigmoid computes 1/(1+e^-x), saturating beyond ±500 to avoid overflow.
func sigmoid(x float64) float64 {
	if x > 500 {
		return 1.0
	}
	if x < -500 {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-x))
}

// probToLogOdds converts a probability to log-odds, clamping p into
// [0.001, 0.999] so extreme priors stay finite.
func probToLogOdds(p float64) float64 {
	p = math.Max(0.001, math.Min(0.999, p))
	return math.Log(p / (1.0 - p))
}

// stage1FastFilter rejects clearly unqualified orgs before any scoring
// work: no signals, nothing surviving filters, or fork-only evidence.
// Signals without repo data pass as org-level evidence.
func stage1FastFilter(signals []*EnrichedSignal, scan *types.ScanContext) (bool, string) {
	if len(signals) == 0 {
		return false, "no_signals"
	}

	active := activeSignals(signals)
	if len(active) == 0 {
		return false, "all_filtered"
	}

	if len(scan.ReposScanned) == 0 {
		return true, "org_level_signals"
	}

	allForks := true
	for _, s := range active {
		fromFork := s.Raw != nil && s.Raw.Fork
		if !fromFork && s.SignalType != "fork_repo" {
			allForks = false
			break
		}
	}
	if allForks {
		return false, "all_forks"
	}

	return true, "passed"
}

// stage2BayesianScorer starts from the segment prior and accumulates each
// active signal's weight of evidence into the log-odds, scaling WoE by
// the signal's observed decay ratio. Interaction bonuses fire once per
// co-occurring family pair.
func (e *Engine) stage2BayesianScorer(signals []*EnrichedSignal, segment MaturitySegment) (float64, float64) {
	logOdds := probToLogOdds(e.tables.priorFor(segment))

	active := activeSignals(signals)
	if len(active) == 0 {
		return sigmoid(logOdds), logOdds
	}

	for _, s := range active {
		decayRatio := 1.0
		if s.RawStrength > 0 {
			decayRatio = s.DecayedStrength / s.RawStrength
		}
		logOdds += s.WoEValue * decayRatio
	}

	present := distinctBaseTypes(active)
	for _, ib := range e.tables.InteractionBonuses {
		if present[ib.A] && present[ib.B] {
			logOdds += ib.Bonus
		}
	}

	return sigmoid(logOdds), logOdds
}

// stage3EnterpriseAdjuster blends the Bayesian probability with the org
// composite (70/30) and adds damped cluster and proven-buyer boosts. A
// nil org score passes the probability through unchanged.
func stage3EnterpriseAdjuster(pIntent float64, org *OrgScore) float64 {
	if org == nil {
		return pIntent
	}

	blended := 0.70*pIntent + 0.30*org.Composite

	if org.ClusterBonus > 1.0 {
		blended = math.Min(1.0, blended+(org.ClusterBonus-1.0)*0.1)
	}
	if org.ProvenBuyerMultiplier > 1.0 {
		blended = math.Min(1.0, blended+(org.ProvenBuyerMultiplier-1.0)*0.2)
	}

	return math.Min(1.0, math.Max(0.0, blended))
}
