package scoring

import (
	"math"

	"github.com/localeintel/pulse/internal/types"
)

// Infrastructure signal families counted toward preparation.
var preparationInfraTypes = typeSet(
	"dependency_injection", "smoking_gun_fork", "tms_config_file",
	"ci_cd_i18n_workflow", "monorepo_i18n_package", "ci_localization_pipeline",
)

// Families that mean translation infrastructure exists for the launch gap.
var launchGapInfraTypes = typeSet(
	"dependency_injection", "smoking_gun_fork", "tms_config_file",
)

// calculateReadinessIndex produces the continuous readiness score,
// weighting preparation, velocity, launch gap and pain intensity.
func (e *Engine) calculateReadinessIndex(signals []*EnrichedSignal, scan *types.ScanContext) (float64, ReadinessComponents) {
	active := activeSignals(signals)

	components := ReadinessComponents{
		Preparation:   preparationScore(active),
		Velocity:      velocityScore(active),
		LaunchGap:     launchGapScore(active),
		PainIntensity: painIntensityScore(active, scan),
	}

	w := e.tables.ReadinessWeights
	readiness := components.Preparation*w.Preparation +
		components.Velocity*w.Velocity +
		components.LaunchGap*w.LaunchGap +
		components.PainIntensity*w.PainIntensity

	return math.Min(1.0, math.Max(0.0, readiness)), components
}

// preparationScore is the fraction of infrastructure families present,
// boosted 1.3x when infrastructure spans two or more repos.
func preparationScore(active []*EnrichedSignal) float64 {
	present := make(map[string]bool)
	reposWithInfra := make(map[string]bool)
	for _, s := range active {
		bt := s.BaseType()
		if !preparationInfraTypes[bt] {
			continue
		}
		present[bt] = true
		if s.Repo != "" {
			reposWithInfra[s.Repo] = true
		}
	}

	score := float64(len(present)) / float64(len(preparationInfraTypes))
	if len(reposWithInfra) >= 2 {
		score = math.Min(1.0, score*1.3)
	}
	return math.Min(1.0, score)
}

// velocityScore weights signal recency in cumulative 7/30/90 day buckets
// and adds 0.2 when a branch was pushed in the last two weeks.
func velocityScore(active []*EnrichedSignal) float64 {
	if len(active) == 0 {
		return 0.0
	}

	recent7, recent30, recent90 := 0, 0, 0
	hasActiveBranch := false
	for _, s := range active {
		if s.AgeInDays == nil {
			continue
		}
		age := *s.AgeInDays
		if age <= 7 {
			recent7++
		}
		if age <= 30 {
			recent30++
		}
		if age <= 90 {
			recent90++
		}
		if s.BaseType() == "ghost_branch" && age <= 14 {
			hasActiveBranch = true
		}
	}

	total := float64(len(active))
	velocity := float64(recent7)/total*0.50 +
		float64(recent30)/total*0.30 +
		float64(recent90)/total*0.20

	if hasActiveBranch {
		velocity = math.Min(1.0, velocity+0.2)
	}
	return math.Min(1.0, velocity)
}

// launchGapScore is highest when infrastructure is ready but nothing has
// shipped, the ideal moment to sell.
func launchGapScore(active []*EnrichedSignal) float64 {
	hasInfra := false
	hasTranslations := false
	for _, s := range active {
		bt := s.BaseType()
		if launchGapInfraTypes[bt] {
			hasInfra = true
		}
		if bt == "already_launched" {
			hasTranslations = true
		}
	}

	switch {
	case hasInfra && !hasTranslations:
		return 1.0
	case hasInfra && hasTranslations:
		return 0.3
	case !hasInfra && !hasTranslations:
		return 0.0
	default:
		return 0.1
	}
}

// painIntensityScore accumulates evidence the org is feeling localization
// pain: RFC discussions, i18n job postings and frustration signals.
func painIntensityScore(active []*EnrichedSignal, scan *types.ScanContext) float64 {
	pain := 0.0

	rfcCount := 0
	hasJobPosting := false
	for _, s := range active {
		switch s.BaseType() {
		case "rfc_discussion":
			rfcCount++
		case "job_posting_intent":
			hasJobPosting = true
		}
	}

	if rfcCount > 0 {
		pain += math.Min(0.4, float64(rfcCount)*0.15)
	}
	if hasJobPosting {
		pain += 0.3
	}
	if n := len(scan.FrustrationSignals); n > 0 {
		pain += math.Min(0.3, float64(n)*0.1)
	}

	return math.Min(1.0, pain)
}
