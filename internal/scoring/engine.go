// Package scoring turns raw GitHub organization scans into localization
// purchase-intent scores. The pipeline enriches raw signals, applies
// structural and domain filters with time decay, classifies i18n maturity,
// runs a weight-of-evidence Bayesian scorer seeded by segment priors, and
// blends in org-level portfolio scoring before producing the final result.
package scoring

import (
	"time"

	"github.com/localeintel/pulse/internal/types"
)

// Engine scores organization scans against a set of weight tables.
// A single Engine is safe for concurrent use: scoring never mutates
// the tables or the detector rules.
type Engine struct {
	tables    *Tables
	detectors []detectorGroup
	now       func() time.Time
}

// NewEngine builds an Engine around the given tables. A nil tables
// argument falls back to the built-in defaults.
func NewEngine(tables *Tables) *Engine {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Engine{
		tables:    tables,
		detectors: buildDetectorGroups(tables),
		now:       time.Now,
	}
}

// Tables exposes the active weight tables, for diagnostics endpoints.
func (e *Engine) Tables() *Tables {
	return e.tables
}

// Score runs the full multi-stage pipeline over one organization scan.
//
// Stage 1 is a cheap gate that runs before any filtering: scans with no
// signals, only filtered signals, or only forks are rejected with a
// minimal result so callers can skip the expensive stages. Scans that
// pass flow through structural, domain, and contextual filters, time
// decay, and contributor heuristics before maturity classification and
// the Bayesian scorer. Stage 3 blends the per-signal probability with
// the org-level composite.
func (e *Engine) Score(scan *types.ScanContext) *ScoringResult {
	signals := e.enrichSignals(scan)

	passed, label := stage1FastFilter(signals, scan)
	if !passed {
		return &ScoringResult{
			Stage1Passed:             false,
			Stage1Label:              label,
			OrgMaturityLevel:         SegmentPreI18n,
			EnrichedSignals:          signals,
			RecommendedOutreachAngle: AngleGreenfieldEducator,
			RiskLevel:                RiskHigh,
		}
	}

	e.applyStructuralFilters(signals, scan)
	applyDomainFilters(signals, scan)
	applyContextualFilters(signals)
	e.applyDecay(signals)
	applyContributorHeuristics(signals, scan)

	maturity := classifyMaturity(signals, scan)
	confidence := calculateConfidence(signals, maturity)

	pIntent, logOdds := e.stage2BayesianScorer(signals, maturity)

	repoScores := buildRepoScores(signals, scan)
	orgScore := e.scoreOrganization(repoScores, signals, scan)

	finalP := stage3EnterpriseAdjuster(pIntent, orgScore)

	readiness, components := e.calculateReadinessIndex(signals, scan)

	return e.buildResult(signals, maturity, finalP, logOdds, orgScore,
		readiness, components, confidence, passed, label)
}
