package scoring

import "github.com/localeintel/pulse/internal/types"

// LegacyFields are the flat lead-qualification fields older consumers
// (sheet sync, dashboards, outreach exports) still read.
type LegacyFields struct {
	IntentScore      int    `json:"intent_score"`
	GoldilocksStatus string `json:"goldilocks_status"`
	LeadStatus       string `json:"lead_status"`
}

var maturityToGoldilocks = map[MaturitySegment]string{
	SegmentPreI18n:          "none",
	SegmentPreparing:        "preparing",
	SegmentActiveImpl:       "preparing",
	SegmentRecentlyLaunched: "launched",
	SegmentMatureMidmarket:  "launched",
	SegmentEnterpriseScale:  "preparing",
}

var maturityToLeadStatus = map[MaturitySegment]string{
	SegmentPreI18n:          "COLD - No Signals Detected",
	SegmentPreparing:        "HOT LEAD - Infrastructure Ready, No Translations",
	SegmentActiveImpl:       "HOT LEAD - Infrastructure Ready, No Translations",
	SegmentRecentlyLaunched: "LOW PRIORITY - Already Localized",
	SegmentMatureMidmarket:  "LOW PRIORITY - Already Localized",
	SegmentEnterpriseScale:  "HOT LEAD - Infrastructure Ready, No Translations",
}

// enterpriseHotCutoff splits enterprise orgs into hot leads and
// already-localized low priority.
const enterpriseHotCutoff = 0.60

// MapToLegacy converts a ScoringResult to the legacy flat fields.
// Enterprise orgs below the intent cutoff report as launched rather than
// preparing to keep them out of the hot-lead queue.
func MapToLegacy(result *ScoringResult) LegacyFields {
	maturity := result.OrgMaturityLevel
	lowIntentEnterprise := maturity == SegmentEnterpriseScale &&
		result.OrgIntentScore < enterpriseHotCutoff

	goldilocks, ok := maturityToGoldilocks[maturity]
	if !ok {
		goldilocks = "none"
	}
	leadStatus, ok := maturityToLeadStatus[maturity]
	if !ok {
		leadStatus = "COLD - No Signals Detected"
	}
	if lowIntentEnterprise {
		goldilocks = "launched"
		leadStatus = "LOW PRIORITY - Already Localized"
	}

	return LegacyFields{
		IntentScore:      scoreToIntent(result),
		GoldilocksStatus: goldilocks,
		LeadStatus:       leadStatus,
	}
}

// scoreToIntent maps the 0-1 probability into the legacy 0-100 scale,
// preserving the old Goldilocks Zone band at 90-100.
func scoreToIntent(result *ScoringResult) int {
	p := result.OrgIntentScore

	switch result.OrgMaturityLevel {
	case SegmentPreI18n:
		return 0
	case SegmentPreparing, SegmentActiveImpl:
		return int(90 + p*10)
	case SegmentEnterpriseScale:
		if p >= enterpriseHotCutoff {
			return int(90 + p*10)
		}
		return int(40 + p*50)
	case SegmentRecentlyLaunched, SegmentMatureMidmarket:
		return 10
	}
	return int(p * 100)
}

// ClassifyCompanySize buckets an org by stars and repo count using the
// size thresholds table.
func (e *Engine) ClassifyCompanySize(scan *types.ScanContext) string {
	st := e.tables.SizeThresholds
	large, medium, small := st["large"], st["medium"], st["small"]

	switch {
	case scan.TotalStars > large.MaxStars || scan.OrgPublicRepos > large.MaxRepos:
		return "enterprise"
	case scan.TotalStars > medium.MaxStars || scan.OrgPublicRepos > medium.MaxRepos:
		return "large"
	case scan.TotalStars > small.MaxStars || scan.OrgPublicRepos > small.MaxRepos:
		return "medium"
	default:
		return "small"
	}
}

// SizeWeight dampens raw scores for bigger orgs, where incidental i18n
// chatter is more common.
func SizeWeight(companySize string) float64 {
	weights := map[string]float64{
		"small":      1.0,
		"medium":     0.95,
		"large":      0.9,
		"enterprise": 0.85,
	}
	if w, ok := weights[companySize]; ok {
		return w
	}
	return 1.0
}
