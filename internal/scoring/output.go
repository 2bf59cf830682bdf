package scoring

import (
	"math"
	"strings"
)

// competitorTMSIndicators mark evidence of a rival translation platform.
var competitorTMSIndicators = []string{
	"crowdin", "lokalise", "transifex", "weblate", "pontoon",
	"smartling", "memsource",
}

// signalClusterSets name the co-occurrence patterns surfaced in output.
// A cluster fires when at least two of its families are present.
var signalClusterSets = []struct {
	name  string
	types map[string]bool
}{
	{"infrastructure_cluster", typeSet("dependency_injection", "smoking_gun_fork", "tms_config_file", "ci_cd_i18n_workflow")},
	{"active_development_cluster", typeSet("ghost_branch", "rfc_discussion", "documentation_intent")},
	{"expansion_cluster", typeSet("regional_domain", "payment_multi_currency", "social_multi_region", "job_posting_intent")},
	{"ci_pipeline_cluster", typeSet("ci_cd_i18n_workflow", "ci_localization_pipeline", "tms_config_file")},
}

// buildResult assembles the final ScoringResult from the pipeline stages.
func (e *Engine) buildResult(
	signals []*EnrichedSignal,
	maturity MaturitySegment,
	pIntent, logOdds float64,
	org *OrgScore,
	readiness float64,
	readinessComponents ReadinessComponents,
	confidence float64,
	stage1Passed bool,
	stage1Label string,
) *ScoringResult {
	angle := classifyOutreachAngle(maturity, signals)

	return &ScoringResult{
		OrgIntentScore:           pIntent,
		OrgMaturityLevel:         maturity,
		ReadinessIndex:           readiness,
		PIntent:                  pIntent,
		LogOdds:                  logOdds,
		OrgScore:                 org,
		RecommendedOutreachAngle: angle,
		RiskLevel:                classifyRiskLevel(confidence, signals),
		ConfidencePercent:        round1(confidence * 100),
		EnrichedSignals:          signals,
		SignalClusters:           detectSignalClusters(signals),
		Stage1Passed:             stage1Passed,
		Stage1Label:              stage1Label,
		PrimaryRepo:              findPrimaryRepo(signals, org),
		ConfidenceFactors:        computeConfidenceFactors(signals),
		RecommendedSalesMotion:   e.recommendSalesMotion(maturity, pIntent),
		ReadinessComponents:      readinessComponents,
	}
}

// classifyOutreachAngle picks the sales approach. Enterprise and pain
// signals outrank maturity defaults; competitor TMS evidence always means
// a migration pitch.
func classifyOutreachAngle(maturity MaturitySegment, signals []*EnrichedSignal) OutreachAngle {
	active := activeSignals(signals)

	hasPain := hasAnyBaseType(active, "rfc_discussion", "job_posting_intent")
	hasDeps := hasAnyBaseType(active, "dependency_injection", "smoking_gun_fork")
	hasLaunched := hasAnyBaseType(active, "already_launched")

	switch {
	case maturity == SegmentEnterpriseScale:
		return AngleEnterpriseStrategic
	case hasPain && !hasDeps && !hasLaunched:
		return AnglePainDriven
	case hasCompetitorTMS(active):
		return AngleMigrationCandidate
	case maturity == SegmentMatureMidmarket:
		return AngleScaleOptimizer
	case maturity == SegmentRecentlyLaunched:
		return AngleExpansionAccelerator
	case maturity == SegmentActiveImpl:
		return AngleImplementationPartner
	case maturity == SegmentPreparing || maturity == SegmentPreI18n:
		if hasDeps {
			return AngleImplementationPartner
		}
		return AngleGreenfieldEducator
	}
	return AngleGreenfieldEducator
}

// classifyRiskLevel grades lead quality from confidence, signal type
// diversity and recency.
func classifyRiskLevel(confidence float64, signals []*EnrichedSignal) RiskLevel {
	active := activeSignals(signals)

	distinctTypes := len(distinctBaseTypes(active))
	recent := 0
	for _, s := range active {
		if s.AgeInDays != nil && *s.AgeInDays <= 30 {
			recent++
		}
	}

	if confidence >= 0.7 && distinctTypes >= 3 && recent >= 2 {
		return RiskLow
	}
	if confidence >= 0.4 && distinctTypes >= 2 {
		return RiskMedium
	}
	return RiskHigh
}

// hasCompetitorTMS reports whether a detected TMS config belongs to a
// rival platform.
func hasCompetitorTMS(active []*EnrichedSignal) bool {
	for _, s := range active {
		if s.BaseType() != "tms_config_file" {
			continue
		}
		evidence := strings.ToLower(s.Evidence)
		if containsAny(evidence, competitorTMSIndicators) {
			return true
		}
	}
	return false
}

// detectSignalClusters names the co-occurrence patterns present.
func detectSignalClusters(signals []*EnrichedSignal) []string {
	present := distinctBaseTypes(activeSignals(signals))

	var clusters []string
	for _, cs := range signalClusterSets {
		matches := 0
		for t := range cs.types {
			if present[t] {
				matches++
			}
		}
		if matches >= 2 {
			clusters = append(clusters, cs.name)
		}
	}
	return clusters
}

// findPrimaryRepo picks the repo with the highest weighted score, falling
// back to the repo carrying the most active signals. Ties keep the repo
// seen first.
func findPrimaryRepo(signals []*EnrichedSignal, org *OrgScore) string {
	if org != nil && len(org.RepoScores) > 0 {
		top := org.RepoScores[0]
		if top.WeightedScore > 0 {
			return top.RepoName
		}
	}

	counts := make(map[string]int)
	var order []string
	for _, s := range signals {
		if s.IsFiltered || s.Repo == "" {
			continue
		}
		if _, ok := counts[s.Repo]; !ok {
			order = append(order, s.Repo)
		}
		counts[s.Repo]++
	}

	best := ""
	bestCount := 0
	for _, repo := range order {
		if counts[repo] > bestCount {
			best, bestCount = repo, counts[repo]
		}
	}
	return best
}

// computeConfidenceFactors breaks confidence into observable inputs:
// type diversity (of 5), 30-day recency share, volume (of 10) and repo
// spread (of 3).
func computeConfidenceFactors(signals []*EnrichedSignal) ConfidenceFactors {
	active := activeSignals(signals)

	recent := 0
	repos := make(map[string]bool)
	for _, s := range active {
		if s.AgeInDays != nil && *s.AgeInDays <= 30 {
			recent++
		}
		if s.Repo != "" {
			repos[s.Repo] = true
		}
	}

	return ConfidenceFactors{
		SignalDiversity: round4(math.Min(1.0, float64(len(distinctBaseTypes(active)))/5.0)),
		SignalRecency:   round4(float64(recent) / math.Max(float64(len(active)), 1)),
		SignalVolume:    round4(math.Min(1.0, float64(len(active))/10.0)),
		RepoSpread:      round4(math.Min(1.0, float64(len(repos))/3.0)),
	}
}

// recommendSalesMotion maps intent probability to the next sales action.
func (e *Engine) recommendSalesMotion(maturity MaturitySegment, pIntent float64) string {
	t := e.tables.Thresholds

	switch {
	case pIntent >= t.HotLead:
		if maturity == SegmentEnterpriseScale {
			return "Enterprise AE intro + custom demo"
		}
		return "Immediate BDR outreach + personalized demo"
	case pIntent >= t.WarmLead:
		return "Nurture sequence + educational content"
	case pIntent >= t.Monitor:
		return "Add to watch list + quarterly check-in"
	default:
		return "Low priority — monitor for signal changes"
	}
}
