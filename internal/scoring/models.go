package scoring

import (
	"math"
	"strings"

	"github.com/localeintel/pulse/internal/types"
)

// MaturitySegment classifies how far along an organization is on its
// localization journey.
type MaturitySegment string

const (
	SegmentPreI18n          MaturitySegment = "pre_i18n"
	SegmentPreparing        MaturitySegment = "preparing"
	SegmentActiveImpl       MaturitySegment = "active_implementation"
	SegmentRecentlyLaunched MaturitySegment = "recently_launched"
	SegmentMatureMidmarket  MaturitySegment = "mature_midmarket"
	SegmentEnterpriseScale  MaturitySegment = "enterprise_scale"
)

var segmentLabels = map[MaturitySegment]string{
	SegmentPreI18n:          "Pre-i18n",
	SegmentPreparing:        "Preparing",
	SegmentActiveImpl:       "Active Implementation",
	SegmentRecentlyLaunched: "Recently Launched",
	SegmentMatureMidmarket:  "Mature / Midmarket",
	SegmentEnterpriseScale:  "Enterprise Scale",
}

var segmentColors = map[MaturitySegment]string{
	SegmentPreI18n:          "#6b7280",
	SegmentPreparing:        "#f59e0b",
	SegmentActiveImpl:       "#3b82f6",
	SegmentRecentlyLaunched: "#10b981",
	SegmentMatureMidmarket:  "#8b5cf6",
	SegmentEnterpriseScale:  "#ef4444",
}

// Label returns the human-readable segment name.
func (m MaturitySegment) Label() string {
	if l, ok := segmentLabels[m]; ok {
		return l
	}
	return string(m)
}

// Color returns the dashboard hex color for the segment.
func (m MaturitySegment) Color() string {
	if c, ok := segmentColors[m]; ok {
		return c
	}
	return "#6b7280"
}

// OutreachAngle is the recommended sales approach for a lead.
type OutreachAngle string

const (
	AngleGreenfieldEducator    OutreachAngle = "greenfield_educator"
	AngleImplementationPartner OutreachAngle = "implementation_partner"
	AngleScaleOptimizer        OutreachAngle = "scale_optimizer"
	AngleExpansionAccelerator  OutreachAngle = "expansion_accelerator"
	AngleMigrationCandidate    OutreachAngle = "migration_candidate"
	AngleEnterpriseStrategic   OutreachAngle = "enterprise_strategic"
	AnglePainDriven            OutreachAngle = "pain_driven"
)

var angleLabels = map[OutreachAngle]string{
	AngleGreenfieldEducator:    "Greenfield Educator",
	AngleImplementationPartner: "Implementation Partner",
	AngleScaleOptimizer:        "Scale Optimizer",
	AngleExpansionAccelerator:  "Expansion Accelerator",
	AngleMigrationCandidate:    "Migration Candidate",
	AngleEnterpriseStrategic:   "Enterprise Strategic",
	AnglePainDriven:            "Pain-Driven",
}

var angleDescriptions = map[OutreachAngle]string{
	AngleGreenfieldEducator:    "No i18n yet — educate on best practices and modern workflows",
	AngleImplementationPartner: "Actively building i18n — help them do it right from the start",
	AngleScaleOptimizer:        "Growing pains with current setup — optimize for scale",
	AngleExpansionAccelerator:  "Ready to expand to new markets — accelerate their rollout",
	AngleMigrationCandidate:    "Using a competitor or legacy tool — present migration path",
	AngleEnterpriseStrategic:   "Large org with complex needs — strategic partnership approach",
	AnglePainDriven:            "Experiencing specific pain points — solve their immediate problem",
}

// Label returns the human-readable angle name.
func (a OutreachAngle) Label() string {
	if l, ok := angleLabels[a]; ok {
		return l
	}
	return string(a)
}

// Description returns the one-line playbook summary for the angle.
func (a OutreachAngle) Description() string {
	return angleDescriptions[a]
}

// RiskLevel grades how likely the classification is to be wrong.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Label returns the upper-case display form.
func (r RiskLevel) Label() string { return strings.ToUpper(string(r)) }

// SignalCategory groups signal types for half-life decay.
type SignalCategory string

const (
	CategoryBranchCommit      SignalCategory = "branch_commit"
	CategoryLibraryInstall    SignalCategory = "library_install"
	CategoryPRIssue           SignalCategory = "pr_issue"
	CategoryConfigChange      SignalCategory = "config_change"
	CategoryDocMention        SignalCategory = "doc_mention"
	CategoryTMSFile           SignalCategory = "tms_file"
	CategoryCICD              SignalCategory = "ci_cd"
	CategoryInfrastructure    SignalCategory = "infrastructure"
	CategoryEnhancedHeuristic SignalCategory = "enhanced_heuristic"
	CategoryFork              SignalCategory = "fork"
)

// signalFamilies are the resolvable signal types whose sub-types
// (_preparing, _high, _active) collapse back to a base type for
// membership and distinctness checks.
var signalFamilies = []string{
	"dependency_injection",
	"rfc_discussion",
	"ghost_branch",
	"documentation_intent",
}

// baseType strips a resolved sub-type suffix back to its signal family.
func baseType(t string) string {
	for _, fam := range signalFamilies {
		if strings.HasPrefix(t, fam) {
			return fam
		}
	}
	return t
}

// EnrichedSignal is a raw signal wrapped with everything the Bayesian
// pipeline needs: resolved type, weight of evidence, strength, age, decay
// and filter state.
type EnrichedSignal struct {
	SignalType string `json:"signal_type"`
	Evidence   string `json:"evidence"`
	Company    string `json:"company"`
	Link       string `json:"link"`
	Priority   string `json:"priority"`
	Repo       string `json:"repo"`
	FilePath   string `json:"file_path"`

	RawStrength     float64        `json:"raw_strength"`
	AgeInDays       *int           `json:"age_in_days"`
	SourceContext   string         `json:"source_context"`
	SignalCategory  SignalCategory `json:"signal_category"`
	WoEValue        float64        `json:"woe_value"`
	DecayedStrength float64        `json:"decayed_strength"`

	DetectedAt string `json:"detected_at"`
	CreatedAt  string `json:"created_at"`

	IsFiltered       bool    `json:"is_filtered"`
	FilterReason     string  `json:"filter_reason"`
	FilterMultiplier float64 `json:"filter_multiplier"`

	// Raw points back to the scanner signal this was built from. Synthetic
	// signals keep the signal that triggered the detection.
	Raw *types.RawSignal `json:"-"`
}

// BaseType returns the signal family regardless of resolved sub-type.
func (s *EnrichedSignal) BaseType() string { return baseType(s.SignalType) }

// Legacy converts the signal back to the scanner's wire shape.
func (s *EnrichedSignal) Legacy() types.RawSignal {
	out := types.RawSignal{
		Company:  s.Company,
		Signal:   s.SignalType,
		Evidence: s.Evidence,
		Link:     s.Link,
		Priority: s.Priority,
		Type:     s.SignalType,
		Repo:     s.Repo,
		File:     s.FilePath,
	}
	if s.Raw != nil {
		out.GoldilocksStatus = s.Raw.GoldilocksStatus
		out.GapVerified = s.Raw.GapVerified
		out.Fork = s.Raw.Fork
		out.DetectedAt = s.Raw.DetectedAt
		out.CreatedAt = s.Raw.CreatedAt
		out.PushedAt = s.Raw.PushedAt
		out.LastCommitDate = s.Raw.LastCommitDate
		out.Timestamp = s.Raw.Timestamp
	}
	return out
}

// RepoScore grades one repository by its signal concentration and tier.
// Tier 1 repos are products, tier 2 support, tier 3 internal tooling and
// tier 0 excluded (forks, archived).
type RepoScore struct {
	RepoName      string  `json:"repo_name"`
	Tier          int     `json:"tier"`
	TierWeight    float64 `json:"tier_weight"`
	SignalCount   int     `json:"signal_count"`
	WeightedScore float64 `json:"weighted_score"`
	IsFork        bool    `json:"is_fork"`
	IsArchived    bool    `json:"is_archived"`
	Stars         int     `json:"stars"`

	Signals  []*EnrichedSignal `json:"-"`
	LastPush string            `json:"-"`
}

// OrgScore is the organization-level composite built from repo scores.
type OrgScore struct {
	PeakScore              float64 `json:"peak_score"`
	MeanTop3               float64 `json:"mean_top3"`
	Breadth                float64 `json:"breadth"`
	HighValueConcentration float64 `json:"high_value_concentration"`
	Momentum               float64 `json:"momentum"`
	Composite              float64 `json:"composite"`
	ClusterBonus           float64 `json:"cluster_bonus"`
	ProvenBuyerMultiplier  float64 `json:"proven_buyer_multiplier"`

	RepoScores []*RepoScore `json:"repo_breakdown"`
}

// ReadinessComponents breaks the readiness index into its four inputs.
type ReadinessComponents struct {
	Preparation   float64 `json:"preparation"`
	Velocity      float64 `json:"velocity"`
	LaunchGap     float64 `json:"launch_gap"`
	PainIntensity float64 `json:"pain_intensity"`
}

// ConfidenceFactors breaks confidence into its observable inputs.
type ConfidenceFactors struct {
	SignalDiversity float64 `json:"signal_diversity"`
	SignalRecency   float64 `json:"signal_recency"`
	SignalVolume    float64 `json:"signal_volume"`
	RepoSpread      float64 `json:"repo_spread"`
}

// ScoringResult is the complete output of the scoring pipeline.
type ScoringResult struct {
	OrgIntentScore   float64         `json:"org_intent_score"`
	OrgMaturityLevel MaturitySegment `json:"org_maturity_level"`
	ReadinessIndex   float64         `json:"readiness_index"`

	PIntent  float64   `json:"p_intent"`
	LogOdds  float64   `json:"log_odds"`
	OrgScore *OrgScore `json:"org_score"`

	RecommendedOutreachAngle OutreachAngle `json:"recommended_outreach_angle"`
	RiskLevel                RiskLevel     `json:"risk_level"`
	ConfidencePercent        float64       `json:"confidence_percent"`

	EnrichedSignals []*EnrichedSignal `json:"enriched_signals"`
	SignalClusters  []string          `json:"signal_clusters"`

	Stage1Passed           bool              `json:"stage1_passed"`
	Stage1Label            string            `json:"stage1_label"`
	PrimaryRepo            string            `json:"primary_repo"`
	ConfidenceFactors      ConfidenceFactors `json:"confidence_factors"`
	RecommendedSalesMotion string            `json:"recommended_sales_motion"`

	ReadinessComponents ReadinessComponents `json:"readiness_components"`
}

// maxStructuredSignals caps the signal list in structured output so one
// noisy org cannot bloat downstream storage.
const maxStructuredSignals = 20

// StructuredResult is the flattened, display-ready rendering of a
// ScoringResult with rounded floats and label/color lookups applied.
type StructuredResult struct {
	OrgIntentScore      float64             `json:"org_intent_score"`
	OrgMaturityLevel    MaturitySegment     `json:"org_maturity_level"`
	OrgMaturityLabel    string              `json:"org_maturity_label"`
	OrgMaturityColor    string              `json:"org_maturity_color"`
	ReadinessIndex      float64             `json:"readiness_index"`
	ReadinessComponents ReadinessComponents `json:"readiness_components"`

	PIntent  float64   `json:"p_intent"`
	LogOdds  float64   `json:"log_odds"`
	OrgScore *OrgScore `json:"org_score"`

	RecommendedOutreachAngle OutreachAngle `json:"recommended_outreach_angle"`
	OutreachAngleLabel       string        `json:"outreach_angle_label"`
	OutreachAngleDescription string        `json:"outreach_angle_description"`
	RiskLevel                RiskLevel     `json:"risk_level"`
	RiskLevelLabel           string        `json:"risk_level_label"`

	ConfidencePercent float64           `json:"confidence_percent"`
	ConfidenceFactors ConfidenceFactors `json:"confidence_factors"`

	SignalClustersDetected []string `json:"signal_clusters_detected"`
	PrimaryRepoOfConcern   string   `json:"primary_repo_of_concern"`
	RecommendedSalesMotion string   `json:"recommended_sales_motion"`

	Stage1Passed bool   `json:"stage1_passed"`
	Stage1Label  string `json:"stage1_label"`

	EnrichedSignalCount int               `json:"enriched_signal_count"`
	EnrichedSignals     []*EnrichedSignal `json:"enriched_signals"`
}

// Structured renders the result for API responses and exports.
func (r *ScoringResult) Structured() StructuredResult {
	clusters := r.SignalClusters
	if clusters == nil {
		clusters = []string{}
	}

	signals := r.EnrichedSignals
	if len(signals) > maxStructuredSignals {
		signals = signals[:maxStructuredSignals]
	}
	if signals == nil {
		signals = []*EnrichedSignal{}
	}

	return StructuredResult{
		OrgIntentScore:   round4(r.OrgIntentScore),
		OrgMaturityLevel: r.OrgMaturityLevel,
		OrgMaturityLabel: r.OrgMaturityLevel.Label(),
		OrgMaturityColor: r.OrgMaturityLevel.Color(),
		ReadinessIndex:   round4(r.ReadinessIndex),
		ReadinessComponents: ReadinessComponents{
			Preparation:   round4(r.ReadinessComponents.Preparation),
			Velocity:      round4(r.ReadinessComponents.Velocity),
			LaunchGap:     round4(r.ReadinessComponents.LaunchGap),
			PainIntensity: round4(r.ReadinessComponents.PainIntensity),
		},
		PIntent:                  round4(r.PIntent),
		LogOdds:                  round4(r.LogOdds),
		OrgScore:                 r.OrgScore.rounded(),
		RecommendedOutreachAngle: r.RecommendedOutreachAngle,
		OutreachAngleLabel:       r.RecommendedOutreachAngle.Label(),
		OutreachAngleDescription: r.RecommendedOutreachAngle.Description(),
		RiskLevel:                r.RiskLevel,
		RiskLevelLabel:           r.RiskLevel.Label(),
		ConfidencePercent:        round1(r.ConfidencePercent),
		ConfidenceFactors: ConfidenceFactors{
			SignalDiversity: round4(r.ConfidenceFactors.SignalDiversity),
			SignalRecency:   round4(r.ConfidenceFactors.SignalRecency),
			SignalVolume:    round4(r.ConfidenceFactors.SignalVolume),
			RepoSpread:      round4(r.ConfidenceFactors.RepoSpread),
		},
		SignalClustersDetected: clusters,
		PrimaryRepoOfConcern:   r.PrimaryRepo,
		RecommendedSalesMotion: r.RecommendedSalesMotion,
		Stage1Passed:           r.Stage1Passed,
		Stage1Label:            r.Stage1Label,
		EnrichedSignalCount:    len(r.EnrichedSignals),
		EnrichedSignals:        signals,
	}
}

// rounded returns a copy with display rounding applied, keeping the
// original full-precision values intact for further computation.
func (o *OrgScore) rounded() *OrgScore {
	if o == nil {
		return nil
	}
	out := &OrgScore{
		PeakScore:              round4(o.PeakScore),
		MeanTop3:               round4(o.MeanTop3),
		Breadth:                round4(o.Breadth),
		HighValueConcentration: round4(o.HighValueConcentration),
		Momentum:               round4(o.Momentum),
		Composite:              round4(o.Composite),
		ClusterBonus:           round2(o.ClusterBonus),
		ProvenBuyerMultiplier:  round2(o.ProvenBuyerMultiplier),
		RepoScores:             make([]*RepoScore, 0, len(o.RepoScores)),
	}
	for _, rs := range o.RepoScores {
		c := *rs
		c.WeightedScore = round4(rs.WeightedScore)
		c.Signals = nil
		out.RepoScores = append(out.RepoScores, &c)
	}
	return out
}

func round4(x float64) float64 { return math.Round(x*1e4) / 1e4 }

func round2(x float64) float64 { return math.Round(x*1e2) / 1e2 }

func round1(x float64) float64 { return math.Round(x*10) / 10 }
