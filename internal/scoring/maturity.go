package scoring

import (
	"math"

	"github.com/localeintel/pulse/internal/types"
)

// Enterprise scale gates. An org qualifies on either axis.
const (
	enterpriseStarGate = 20000
	enterpriseRepoGate = 400
)

// classifyMaturity assigns one of the six maturity segments. Segments are
// checked from most to least specific and the first match wins. Orgs with
// library or fork signals that match nothing else default to preparing.
func classifyMaturity(signals []*EnrichedSignal, scan *types.ScanContext) MaturitySegment {
	active := activeSignals(signals)
	if len(active) == 0 {
		return SegmentPreI18n
	}

	switch {
	case checkEnterpriseScale(active, scan):
		return SegmentEnterpriseScale
	case checkMatureMidmarket(active):
		return SegmentMatureMidmarket
	case checkRecentlyLaunched(active):
		return SegmentRecentlyLaunched
	case checkActiveImplementation(active):
		return SegmentActiveImpl
	case checkPreparing(active):
		return SegmentPreparing
	}

	if hasAnyBaseType(active, "dependency_injection", "smoking_gun_fork") {
		return SegmentPreparing
	}
	return SegmentPreI18n
}

// Enterprise scale: a large org (stars or repo count) showing at least
// two distinct signal families.
func checkEnterpriseScale(active []*EnrichedSignal, scan *types.ScanContext) bool {
	if scan.TotalStars < enterpriseStarGate && scan.OrgPublicRepos < enterpriseRepoGate {
		return false
	}
	return len(distinctBaseTypes(active)) >= 2
}

// Mature/midmarket: already launched and running a TMS or localization CI.
func checkMatureMidmarket(active []*EnrichedSignal) bool {
	hasLaunched := hasAnyBaseType(active, "already_launched")
	hasTMS := hasAnyBaseType(active, "tms_config_file")
	hasCI := hasAnyBaseType(active, "ci_cd_i18n_workflow", "ci_localization_pipeline")
	return hasLaunched && (hasTMS || hasCI)
}

// Recently launched: locale folders exist but no TMS yet.
func checkRecentlyLaunched(active []*EnrichedSignal) bool {
	return hasAnyBaseType(active, "already_launched") && !hasAnyBaseType(active, "tms_config_file")
}

// Active implementation: library installed and branch work underway, with
// nothing shipped yet.
func checkActiveImplementation(active []*EnrichedSignal) bool {
	return hasAnyBaseType(active, "dependency_injection") &&
		hasAnyBaseType(active, "ghost_branch") &&
		!hasAnyBaseType(active, "already_launched")
}

// Preparing: infrastructure in place, no translations shipped.
func checkPreparing(active []*EnrichedSignal) bool {
	return hasAnyBaseType(active, "dependency_injection", "smoking_gun_fork") &&
		!hasAnyBaseType(active, "already_launched")
}

// expectedSignalTypes lists the signal families that normally accompany a
// segment, used for confidence coverage.
func expectedSignalTypes(segment MaturitySegment) map[string]bool {
	switch segment {
	case SegmentPreparing:
		return typeSet("dependency_injection", "smoking_gun_fork", "rfc_discussion",
			"ghost_branch", "documentation_intent")
	case SegmentActiveImpl:
		return typeSet("dependency_injection", "ghost_branch", "rfc_discussion",
			"tms_config_file", "ci_cd_i18n_workflow")
	case SegmentRecentlyLaunched:
		return typeSet("already_launched", "dependency_injection", "ghost_branch")
	case SegmentMatureMidmarket:
		return typeSet("already_launched", "tms_config_file", "ci_cd_i18n_workflow",
			"ci_localization_pipeline")
	case SegmentEnterpriseScale:
		return typeSet("dependency_injection", "smoking_gun_fork", "tms_config_file",
			"ci_cd_i18n_workflow", "rfc_discussion", "ghost_branch")
	default:
		return map[string]bool{}
	}
}

// calculateConfidence scores the maturity classification as
// coverage × entropy_factor × 1.5, capped at 1. Coverage is the fraction
// of expected signal families present. The entropy factor rewards a
// moderately diverse signal mix and penalizes both monoculture and
// uniform noise, peaking at 0.5 normalized entropy.
func calculateConfidence(signals []*EnrichedSignal, segment MaturitySegment) float64 {
	active := activeSignals(signals)
	if len(active) == 0 {
		return 0.0
	}

	expected := expectedSignalTypes(segment)
	if len(expected) == 0 {
		return 0.5
	}

	covered := 0
	for t := range distinctBaseTypes(active) {
		if expected[t] {
			covered++
		}
	}
	coverage := float64(covered) / float64(len(expected))

	typeCounts := make(map[string]int)
	for _, s := range active {
		typeCounts[s.BaseType()]++
	}

	total := len(active)
	entropyFactor := 1.0
	if total > 1 {
		entropy := 0.0
		for _, c := range typeCounts {
			p := float64(c) / float64(total)
			entropy -= p * math.Log2(p)
		}
		maxEntropy := 1.0
		if len(typeCounts) > 1 {
			maxEntropy = math.Log2(float64(len(typeCounts)))
		}
		normalized := 0.0
		if maxEntropy > 0 {
			normalized = entropy / maxEntropy
		}
		entropyFactor = 1.0 - math.Abs(normalized-0.5)
	}

	return round4(math.Min(1.0, coverage*entropyFactor*1.5))
}

func activeSignals(signals []*EnrichedSignal) []*EnrichedSignal {
	active := make([]*EnrichedSignal, 0, len(signals))
	for _, s := range signals {
		if !s.IsFiltered {
			active = append(active, s)
		}
	}
	return active
}

func hasAnyBaseType(signals []*EnrichedSignal, bases ...string) bool {
	for _, s := range signals {
		bt := s.BaseType()
		for _, b := range bases {
			if bt == b {
				return true
			}
		}
	}
	return false
}

func distinctBaseTypes(signals []*EnrichedSignal) map[string]bool {
	out := make(map[string]bool, len(signals))
	for _, s := range signals {
		out[s.BaseType()] = true
	}
	return out
}

func typeSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
