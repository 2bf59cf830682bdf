package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sig(signalType string) *EnrichedSignal {
	return &EnrichedSignal{SignalType: signalType, FilterMultiplier: 1.0}
}

func TestClassifyOutreachAngle(t *testing.T) {
	tests := []struct {
		name     string
		maturity MaturitySegment
		signals  []*EnrichedSignal
		expected OutreachAngle
	}{
		{"enterprise outranks everything", SegmentEnterpriseScale, nil, AngleEnterpriseStrategic},
		{"preparing with deps", SegmentPreparing, []*EnrichedSignal{sig("dependency_injection_preparing")}, AngleImplementationPartner},
		{"pre-i18n with nothing", SegmentPreI18n, nil, AngleGreenfieldEducator},
		{"recently launched", SegmentRecentlyLaunched, []*EnrichedSignal{sig("already_launched")}, AngleExpansionAccelerator},
		{"mature midmarket", SegmentMatureMidmarket, []*EnrichedSignal{sig("already_launched")}, AngleScaleOptimizer},
		{"pain without infrastructure", SegmentPreI18n, []*EnrichedSignal{sig("rfc_discussion_high_engagement")}, AnglePainDriven},
		{"pain outranks maturity default", SegmentRecentlyLaunched, []*EnrichedSignal{sig("job_posting_intent")}, AnglePainDriven},
		{"active implementation", SegmentActiveImpl, []*EnrichedSignal{sig("dependency_injection"), sig("ghost_branch_active")}, AngleImplementationPartner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyOutreachAngle(tt.maturity, tt.signals))
		})
	}

	t.Run("competitor tms means migration pitch", func(t *testing.T) {
		tms := sig("tms_config_file")
		tms.Evidence = "Found crowdin.yml in repo root"
		signals := []*EnrichedSignal{sig("dependency_injection"), tms}
		assert.Equal(t, AngleMigrationCandidate, classifyOutreachAngle(SegmentPreparing, signals))
	})

	t.Run("unrecognized tms stays on maturity path", func(t *testing.T) {
		tms := sig("tms_config_file")
		tms.Evidence = "Found custom-tool.yml in repo root"
		signals := []*EnrichedSignal{sig("dependency_injection"), tms}
		assert.Equal(t, AngleImplementationPartner, classifyOutreachAngle(SegmentPreparing, signals))
	})
}

func TestClassifyRiskLevel(t *testing.T) {
	aged := func(signalType string, age int) *EnrichedSignal {
		s := sig(signalType)
		s.AgeInDays = &age
		return s
	}

	t.Run("diverse recent evidence is low risk", func(t *testing.T) {
		signals := []*EnrichedSignal{
			aged("dependency_injection", 5),
			aged("rfc_discussion", 10),
			aged("ghost_branch_active", 3),
		}
		assert.Equal(t, RiskLow, classifyRiskLevel(0.8, signals))
	})

	t.Run("two types at moderate confidence", func(t *testing.T) {
		signals := []*EnrichedSignal{sig("dependency_injection"), sig("rfc_discussion")}
		assert.Equal(t, RiskMedium, classifyRiskLevel(0.5, signals))
	})

	t.Run("single stale signal is high risk", func(t *testing.T) {
		signals := []*EnrichedSignal{aged("dependency_injection", 90)}
		assert.Equal(t, RiskHigh, classifyRiskLevel(0.2, signals))
	})

	t.Run("confidence alone is not enough", func(t *testing.T) {
		signals := []*EnrichedSignal{aged("dependency_injection", 5)}
		assert.Equal(t, RiskHigh, classifyRiskLevel(0.9, signals))
	})
}

func TestDetectSignalClusters(t *testing.T) {
	tests := []struct {
		name     string
		signals  []*EnrichedSignal
		expected []string
	}{
		{
			"infrastructure pair",
			[]*EnrichedSignal{sig("dependency_injection_preparing"), sig("tms_config_file")},
			[]string{"infrastructure_cluster"},
		},
		{
			"active development pair",
			[]*EnrichedSignal{sig("ghost_branch_active"), sig("rfc_discussion")},
			[]string{"active_development_cluster"},
		},
		{
			"tms plus ci fires two clusters",
			[]*EnrichedSignal{sig("tms_config_file"), sig("ci_cd_i18n_workflow")},
			[]string{"infrastructure_cluster", "ci_pipeline_cluster"},
		},
		{
			"single family is no cluster",
			[]*EnrichedSignal{sig("dependency_injection"), sig("dependency_injection_preparing")},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detectSignalClusters(tt.signals))
		})
	}
}

func TestFindPrimaryRepo(t *testing.T) {
	t.Run("top weighted repo wins", func(t *testing.T) {
		org := &OrgScore{RepoScores: []*RepoScore{
			{RepoName: "platform", WeightedScore: 2.4},
			{RepoName: "webapp", WeightedScore: 1.1},
		}}
		assert.Equal(t, "platform", findPrimaryRepo(nil, org))
	})

	t.Run("zero-weight org falls back to counts", func(t *testing.T) {
		org := &OrgScore{RepoScores: []*RepoScore{{RepoName: "fork", WeightedScore: 0}}}
		a, b := sig("dependency_injection"), sig("ghost_branch")
		a.Repo, b.Repo = "webapp", "webapp"
		c := sig("rfc_discussion")
		c.Repo = "docs"
		assert.Equal(t, "webapp", findPrimaryRepo([]*EnrichedSignal{a, b, c}, org))
	})

	t.Run("tie keeps first seen", func(t *testing.T) {
		a, b := sig("dependency_injection"), sig("rfc_discussion")
		a.Repo, b.Repo = "first", "second"
		assert.Equal(t, "first", findPrimaryRepo([]*EnrichedSignal{a, b}, nil))
	})

	t.Run("filtered and repo-less ignored", func(t *testing.T) {
		filtered := sig("dependency_injection")
		filtered.Repo = "spam"
		filtered.IsFiltered = true
		orgLevel := sig("job_posting_intent")
		assert.Equal(t, "", findPrimaryRepo([]*EnrichedSignal{filtered, orgLevel}, nil))
	})
}

func TestComputeConfidenceFactors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, ConfidenceFactors{}, computeConfidenceFactors(nil))
	})

	t.Run("mixed ages and repos", func(t *testing.T) {
		mk := func(signalType, repo string, age int) *EnrichedSignal {
			s := sig(signalType)
			s.Repo = repo
			s.AgeInDays = &age
			return s
		}
		signals := []*EnrichedSignal{
			mk("dependency_injection", "webapp", 5),
			mk("rfc_discussion", "docs", 40),
			mk("ghost_branch_active", "webapp", 10),
		}

		factors := computeConfidenceFactors(signals)
		assert.InDelta(t, 0.6, factors.SignalDiversity, 1e-9)
		assert.InDelta(t, 0.6667, factors.SignalRecency, 1e-9)
		assert.InDelta(t, 0.3, factors.SignalVolume, 1e-9)
		assert.InDelta(t, 0.6667, factors.RepoSpread, 1e-9)
	})
}

func TestRecommendSalesMotion(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name     string
		maturity MaturitySegment
		pIntent  float64
		expected string
	}{
		{"hot enterprise", SegmentEnterpriseScale, 0.80, "Enterprise AE intro + custom demo"},
		{"hot midmarket", SegmentPreparing, 0.80, "Immediate BDR outreach + personalized demo"},
		{"hot boundary", SegmentActiveImpl, 0.75, "Immediate BDR outreach + personalized demo"},
		{"warm", SegmentPreparing, 0.60, "Nurture sequence + educational content"},
		{"watch list", SegmentPreI18n, 0.35, "Add to watch list + quarterly check-in"},
		{"cold", SegmentPreI18n, 0.10, "Low priority — monitor for signal changes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.recommendSalesMotion(tt.maturity, tt.pIntent))
		})
	}
}

func TestBuildResult(t *testing.T) {
	e := testEngine()

	dep := sig("dependency_injection_preparing")
	dep.Repo = "webapp"
	org := &OrgScore{
		Composite:             0.42,
		ClusterBonus:          1.0,
		ProvenBuyerMultiplier: 1.0,
		RepoScores:            []*RepoScore{{RepoName: "webapp", WeightedScore: 1.2}},
	}
	components := ReadinessComponents{Preparation: 1.0 / 6.0, Velocity: 1.0, LaunchGap: 1.0}

	result := e.buildResult([]*EnrichedSignal{dep}, SegmentPreparing, 0.82, 1.5164,
		org, 0.57, components, 0.3, true, "passed")

	assert.Equal(t, 0.82, result.OrgIntentScore)
	assert.Equal(t, 0.82, result.PIntent)
	assert.Equal(t, 1.5164, result.LogOdds)
	assert.Equal(t, SegmentPreparing, result.OrgMaturityLevel)
	assert.Equal(t, AngleImplementationPartner, result.RecommendedOutreachAngle)
	assert.Equal(t, RiskHigh, result.RiskLevel)
	assert.Equal(t, 30.0, result.ConfidencePercent)
	assert.Equal(t, 0.57, result.ReadinessIndex)
	assert.Equal(t, components, result.ReadinessComponents)
	assert.Same(t, org, result.OrgScore)
	assert.True(t, result.Stage1Passed)
	assert.Equal(t, "passed", result.Stage1Label)
	assert.Equal(t, "webapp", result.PrimaryRepo)
	assert.Equal(t, "Immediate BDR outreach + personalized demo", result.RecommendedSalesMotion)
	assert.Empty(t, result.SignalClusters)
}
