package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localeintel/pulse/internal/types"
)

func TestStructuralFilters(t *testing.T) {
	e := testEngine()

	t.Run("fork repo filtered", func(t *testing.T) {
		scan := forkScan()
		enriched := e.enrichSignals(scan)
		e.applyStructuralFilters(enriched, scan)

		for _, s := range enriched {
			if s.Repo == "forked-app" {
				assert.True(t, s.IsFiltered)
				assert.Equal(t, "fork_repo", s.FilterReason)
				assert.Equal(t, 0.0, s.FilterMultiplier)
			}
		}
	})

	t.Run("healthy repo untouched", func(t *testing.T) {
		scan := preparingScan()
		enriched := e.enrichSignals(scan)
		e.applyStructuralFilters(enriched, scan)

		for _, s := range enriched {
			if s.Repo == "webapp" {
				assert.False(t, s.IsFiltered)
			}
		}
	})

	t.Run("archived repo filtered", func(t *testing.T) {
		scan := &types.ScanContext{
			OrgLogin: "acme",
			Signals: []types.RawSignal{
				{Type: "dependency_injection", Evidence: "found lib", Repo: "old-app"},
			},
			ReposScanned: []types.RepoMeta{
				{Name: "old-app", Archived: true, Stars: 100},
			},
		}
		enriched := e.enrichSignals(scan)
		e.applyStructuralFilters(enriched, scan)
		require.Len(t, enriched, 1)
		assert.Equal(t, "archived_repo", enriched[0].FilterReason)
	})

	t.Run("near-empty repo filtered", func(t *testing.T) {
		scan := &types.ScanContext{
			OrgLogin: "acme",
			Signals: []types.RawSignal{
				{Type: "dependency_injection", Evidence: "found lib", Repo: "tiny"},
			},
			ReposScanned: []types.RepoMeta{
				{Name: "tiny", Stars: 10, Size: intPtr(2)},
			},
		}
		enriched := e.enrichSignals(scan)
		e.applyStructuralFilters(enriched, scan)
		assert.Equal(t, "low_commit_count", enriched[0].FilterReason)
	})

	t.Run("unknown size passes commit gate", func(t *testing.T) {
		scan := &types.ScanContext{
			OrgLogin: "acme",
			Signals: []types.RawSignal{
				{Type: "dependency_injection", Evidence: "found lib", Repo: "app"},
			},
			ReposScanned: []types.RepoMeta{
				{Name: "app", Stars: 10},
			},
		}
		enriched := e.enrichSignals(scan)
		e.applyStructuralFilters(enriched, scan)
		assert.False(t, enriched[0].IsFiltered)
	})

	t.Run("personal account with zero engagement filtered", func(t *testing.T) {
		scan := &types.ScanContext{
			Signals: []types.RawSignal{
				{Type: "dependency_injection", Evidence: "found lib", Repo: "side-project"},
			},
			ReposScanned: []types.RepoMeta{
				{Name: "side-project"},
			},
		}
		enriched := e.enrichSignals(scan)
		e.applyStructuralFilters(enriched, scan)
		assert.Equal(t, "zero_engagement_personal", enriched[0].FilterReason)
	})

	t.Run("stale repo filtered", func(t *testing.T) {
		scan := &types.ScanContext{
			OrgLogin: "acme",
			Signals: []types.RawSignal{
				{Type: "dependency_injection", Evidence: "found lib", Repo: "dormant"},
			},
			ReposScanned: []types.RepoMeta{
				{Name: "dormant", Stars: 50, PushedAt: daysAgo(400)},
			},
		}
		enriched := e.enrichSignals(scan)
		e.applyStructuralFilters(enriched, scan)
		assert.Equal(t, "stale_repo", enriched[0].FilterReason)
	})
}

func TestDomainFilters(t *testing.T) {
	t.Run("tutorial repo discounted", func(t *testing.T) {
		scan := &types.ScanContext{OrgLogin: "testorg"}
		s := &EnrichedSignal{
			SignalType:       "dependency_injection",
			Evidence:         "Found i18next",
			Repo:             "react-tutorial",
			FilterMultiplier: 1.0,
		}
		applyDomainFilters([]*EnrichedSignal{s}, scan)
		assert.InDelta(t, 0.20, s.FilterMultiplier, 0.01)
		assert.Equal(t, "tutorial_repo", s.FilterReason)
	})

	t.Run("open protocol org discounted", func(t *testing.T) {
		scan := &types.ScanContext{
			OrgLogin:       "testorg",
			OrgDescription: "A decentralized protocol for the future",
		}
		s := &EnrichedSignal{
			SignalType:       "dependency_injection",
			Evidence:         "Found i18next",
			Repo:             "main-app",
			FilterMultiplier: 1.0,
		}
		applyDomainFilters([]*EnrichedSignal{s}, scan)
		assert.InDelta(t, 0.20, s.FilterMultiplier, 0.01)
		assert.Equal(t, "open_protocol", s.FilterReason)
	})

	t.Run("sdk repo discounted", func(t *testing.T) {
		scan := &types.ScanContext{OrgLogin: "testorg"}
		s := &EnrichedSignal{
			SignalType:       "dependency_injection",
			Repo:             "payments-sdk",
			FilterMultiplier: 1.0,
		}
		applyDomainFilters([]*EnrichedSignal{s}, scan)
		assert.InDelta(t, 0.20, s.FilterMultiplier, 0.01)
		assert.Equal(t, "sdk_library_repo", s.FilterReason)
	})

	t.Run("discounts compound but first reason sticks", func(t *testing.T) {
		scan := &types.ScanContext{
			OrgLogin:       "testorg",
			OrgDescription: "decentralized exchange",
		}
		s := &EnrichedSignal{
			SignalType:       "dependency_injection",
			Repo:             "demo-sdk",
			FilterMultiplier: 1.0,
		}
		applyDomainFilters([]*EnrichedSignal{s}, scan)
		// open_protocol × tutorial × sdk = 0.2^3
		assert.InDelta(t, 0.008, s.FilterMultiplier, 0.001)
		assert.Equal(t, "open_protocol", s.FilterReason)
	})

	t.Run("already filtered signals skipped", func(t *testing.T) {
		scan := &types.ScanContext{OrgLogin: "testorg"}
		s := &EnrichedSignal{
			SignalType:       "dependency_injection",
			Repo:             "react-tutorial",
			IsFiltered:       true,
			FilterReason:     "fork_repo",
			FilterMultiplier: 0.0,
		}
		applyDomainFilters([]*EnrichedSignal{s}, scan)
		assert.Equal(t, "fork_repo", s.FilterReason)
		assert.Equal(t, 0.0, s.FilterMultiplier)
	})
}

func TestContextualFilters(t *testing.T) {
	t.Run("docs only halved", func(t *testing.T) {
		s := &EnrichedSignal{
			SignalType:       "documentation_intent",
			Evidence:         "i18n mentioned",
			FilePath:         "docs/README.md",
			FilterMultiplier: 1.0,
		}
		applyContextualFilters([]*EnrichedSignal{s})
		assert.InDelta(t, 0.50, s.FilterMultiplier, 0.01)
		assert.Equal(t, "docs_only", s.FilterReason)
	})

	t.Run("test path halved", func(t *testing.T) {
		s := &EnrichedSignal{
			SignalType:       "dependency_injection",
			FilePath:         "tests/fixtures/locale.txt",
			FilterMultiplier: 1.0,
		}
		applyContextualFilters([]*EnrichedSignal{s})
		assert.InDelta(t, 0.50, s.FilterMultiplier, 0.01)
		assert.Equal(t, "test_ci_only", s.FilterReason)
	})

	t.Run("code context protects", func(t *testing.T) {
		s := &EnrichedSignal{
			SignalType:       "dependency_injection",
			FilePath:         "tests/setup.ts",
			FilterMultiplier: 1.0,
		}
		applyContextualFilters([]*EnrichedSignal{s})
		assert.Equal(t, 1.0, s.FilterMultiplier)
	})
}

func TestDecay(t *testing.T) {
	e := testEngine()

	t.Run("no age keeps full strength", func(t *testing.T) {
		s := &EnrichedSignal{
			SignalType:       "dependency_injection",
			RawStrength:      2.0,
			SignalCategory:   CategoryLibraryInstall,
			FilterMultiplier: 1.0,
		}
		e.applyDecay([]*EnrichedSignal{s})
		assert.InDelta(t, 2.0, s.DecayedStrength, 0.01)
	})

	t.Run("two half-lives quarter strength", func(t *testing.T) {
		s := &EnrichedSignal{
			SignalType:       "ghost_branch",
			RawStrength:      1.5,
			AgeInDays:        intPtr(42), // branch_commit half-life is 21d
			SignalCategory:   CategoryBranchCommit,
			FilterMultiplier: 1.0,
		}
		e.applyDecay([]*EnrichedSignal{s})
		assert.InDelta(t, 0.375, s.DecayedStrength, 0.05)
	})

	t.Run("half-life formula", func(t *testing.T) {
		s := &EnrichedSignal{
			SignalType:       "rfc_discussion",
			RawStrength:      1.2,
			AgeInDays:        intPtr(30), // pr_issue half-life is 30d
			SignalCategory:   CategoryPRIssue,
			FilterMultiplier: 1.0,
		}
		e.applyDecay([]*EnrichedSignal{s})
		expected := 1.2 * math.Pow(0.5, 30.0/30.0)
		assert.InDelta(t, expected, s.DecayedStrength, 0.01)
	})

	t.Run("multiplier applied with decay", func(t *testing.T) {
		s := &EnrichedSignal{
			SignalType:       "rfc_discussion",
			RawStrength:      1.2,
			AgeInDays:        intPtr(30),
			SignalCategory:   CategoryPRIssue,
			FilterMultiplier: 0.5,
		}
		e.applyDecay([]*EnrichedSignal{s})
		assert.InDelta(t, 0.3, s.DecayedStrength, 0.01)
	})

	t.Run("filtered signals untouched", func(t *testing.T) {
		s := &EnrichedSignal{
			SignalType:       "dependency_injection",
			RawStrength:      2.0,
			DecayedStrength:  2.0,
			AgeInDays:        intPtr(100),
			IsFiltered:       true,
			FilterMultiplier: 0.0,
		}
		e.applyDecay([]*EnrichedSignal{s})
		assert.Equal(t, 2.0, s.DecayedStrength)
	})
}

func TestContributorHeuristics(t *testing.T) {
	e := testEngine()

	t.Run("corporate contributors boost strengths", func(t *testing.T) {
		scan := preparingScan()
		enriched := e.enrichSignals(scan)
		e.applyDecay(enriched)

		before := make([]float64, len(enriched))
		for i, s := range enriched {
			before[i] = s.DecayedStrength
		}

		applyContributorHeuristics(enriched, scan)
		for i, s := range enriched {
			if !s.IsFiltered {
				assert.InDelta(t, before[i]*corporateBoost, s.DecayedStrength, 1e-9)
			}
		}
	})

	t.Run("hobbyist majority no boost", func(t *testing.T) {
		scan := preparingScan()
		scan.Contributors = map[string]types.Contributor{
			"dev1": {Name: "Dev One", Company: "PrepCorp"},
			"dev2": {Name: "Dev Two"},
		}
		enriched := e.enrichSignals(scan)
		e.applyDecay(enriched)

		before := enriched[0].DecayedStrength
		applyContributorHeuristics(enriched, scan)
		assert.Equal(t, before, enriched[0].DecayedStrength)
	})

	t.Run("no contributors no boost", func(t *testing.T) {
		scan := enterpriseScan()
		enriched := e.enrichSignals(scan)
		e.applyDecay(enriched)

		before := enriched[1].DecayedStrength
		applyContributorHeuristics(enriched, scan)
		assert.Equal(t, before, enriched[1].DecayedStrength)
	})
}

func TestComputeRevenueProxies(t *testing.T) {
	t.Run("preparing org", func(t *testing.T) {
		proxies := ComputeRevenueProxies(preparingScan())
		assert.False(t, proxies.VerifiedDomain)
		assert.False(t, proxies.ManyMembers) // 8 members, gate is >10
		assert.False(t, proxies.HasWebsite)
		assert.True(t, proxies.ProfessionalReadme)
	})

	t.Run("verified org with website", func(t *testing.T) {
		scan := enterpriseScan()
		scan.IsVerified = true
		scan.OrgBlog = "https://megacorp.example"

		proxies := ComputeRevenueProxies(scan)
		assert.True(t, proxies.VerifiedDomain)
		assert.True(t, proxies.ManyMembers)
		assert.True(t, proxies.HasWebsite)
	})
}
