package scoring

import (
	"math"
	"strings"

	"github.com/localeintel/pulse/internal/types"
)

// Structural filter limits.
const (
	minCommitCount = 5
	staleRepoDays  = 365
	unknownCommits = 100 // assumed when repo size is missing
)

// Soft discount multipliers.
const (
	domainDiscount     = 0.20
	contextualDiscount = 0.50
	corporateBoost     = 1.2
)

var openProtocolKeywords = []string{
	"decentralized", "decentralised", "open protocol", "blockchain protocol",
	"web3 protocol", "defi protocol", "dao ",
}

var tutorialIndicators = []string{
	"tutorial", "example", "demo", "sample", "starter",
	"boilerplate", "template", "learn", "course", "workshop",
}

var sdkIndicators = []string{
	"-sdk", "-client", "-api", "-library", "-lib", "-plugin",
	"-extension", "-package", "-module",
}

var docsIndicators = []string{"readme", "docs/", "documentation", "wiki/", ".md"}

var codeIndicators = []string{".js", ".ts", ".py", ".rb", ".go", ".java", ".yml", "package.json"}

var testIndicators = []string{"test/", "tests/", "spec/", "__tests__", ".test.", ".spec."}

var ciIndicators = []string{".github/workflows/", ".circleci/", "jenkinsfile", ".travis"}

// applyStructuralFilters hard-rejects signals from structurally
// disqualified repos: forks, archived repos, near-empty repos, personal
// repos with zero engagement, and repos not pushed in over a year.
// Rejection zeroes the multiplier and marks the signal filtered.
func (e *Engine) applyStructuralFilters(signals []*EnrichedSignal, scan *types.ScanContext) {
	repos := repoIndex(scan)
	isPersonal := scan.OrgLogin == ""

	for _, s := range signals {
		meta, known := repos[s.Repo]

		if known && meta.Fork {
			rejectSignal(s, "fork_repo")
			continue
		}
		if known && meta.Archived {
			rejectSignal(s, "archived_repo")
			continue
		}

		commits := unknownCommits
		if known && meta.Size != nil {
			commits = *meta.Size
		}
		if commits < minCommitCount {
			rejectSignal(s, "low_commit_count")
			continue
		}

		stars, watchers := 0, 0
		if known {
			stars, watchers = meta.Stars, meta.Watchers
		}
		if isPersonal && stars == 0 && watchers == 0 {
			rejectSignal(s, "zero_engagement_personal")
			continue
		}

		if known && meta.PushedAt != "" {
			if age := ageFromTimestamp(meta.PushedAt, e.now()); age != nil && *age > staleRepoDays {
				rejectSignal(s, "stale_repo")
			}
		}
	}
}

func rejectSignal(s *EnrichedSignal, reason string) {
	s.IsFiltered = true
	s.FilterReason = reason
	s.FilterMultiplier = 0.0
}

// applyDomainFilters discounts signals from repos unlikely to buy:
// open-protocol orgs, tutorial/demo repos and library/SDK repos each take
// an 80% reduction. Discounts compound but the first reason sticks.
func applyDomainFilters(signals []*EnrichedSignal, scan *types.ScanContext) {
	orgDescription := strings.ToLower(scan.OrgDescription)

	isOpenProtocol := false
	for _, kw := range openProtocolKeywords {
		if strings.Contains(orgDescription, kw) {
			isOpenProtocol = true
			break
		}
	}

	for _, s := range signals {
		if s.IsFiltered {
			continue
		}
		repoName := strings.ToLower(s.Repo)

		if isOpenProtocol {
			discountSignal(s, domainDiscount, "open_protocol")
		}
		if containsAny(repoName, tutorialIndicators) {
			discountSignal(s, domainDiscount, "tutorial_repo")
		}
		if containsAny(repoName, sdkIndicators) {
			discountSignal(s, domainDiscount, "sdk_library_repo")
		}
	}
}

// applyContextualFilters halves signals whose only evidence lives in docs
// or test/CI paths with no code context alongside.
func applyContextualFilters(signals []*EnrichedSignal) {
	for _, s := range signals {
		if s.IsFiltered {
			continue
		}
		fileLower := strings.ToLower(s.FilePath)
		hasCodeContext := containsAny(fileLower, codeIndicators)

		if containsAny(fileLower, docsIndicators) && !hasCodeContext {
			discountSignal(s, contextualDiscount, "docs_only")
		}

		isTestOrCI := containsAny(fileLower, testIndicators) || containsAny(fileLower, ciIndicators)
		if isTestOrCI && !hasCodeContext {
			discountSignal(s, contextualDiscount, "test_ci_only")
		}
	}
}

func discountSignal(s *EnrichedSignal, multiplier float64, reason string) {
	s.FilterMultiplier *= multiplier
	if s.FilterReason == "" {
		s.FilterReason = reason
	}
}

// applyDecay computes decayed_strength = raw_strength × multiplier ×
// 0.5^(age / half_life). Signals without a timestamp skip the decay term
// and keep full strength.
func (e *Engine) applyDecay(signals []*EnrichedSignal) {
	for _, s := range signals {
		if s.IsFiltered {
			continue
		}
		if s.AgeInDays == nil {
			s.DecayedStrength = s.RawStrength * s.FilterMultiplier
			continue
		}
		halfLife := e.tables.halfLifeFor(s.SignalCategory)
		decay := math.Pow(0.5, float64(*s.AgeInDays)/halfLife)
		s.DecayedStrength = s.RawStrength * decay * s.FilterMultiplier
	}
}

// applyContributorHeuristics boosts all active signals by 1.2x when more
// than half the contributors list a company affiliation, a proxy for
// commercial rather than hobbyist activity.
func applyContributorHeuristics(signals []*EnrichedSignal, scan *types.ScanContext) {
	if len(scan.Contributors) == 0 {
		return
	}

	corporate := 0
	for _, c := range scan.Contributors {
		if strings.TrimSpace(c.Company) != "" {
			corporate++
		}
	}
	ratio := float64(corporate) / float64(len(scan.Contributors))
	if ratio <= 0.50 {
		return
	}

	for _, s := range signals {
		if !s.IsFiltered {
			s.DecayedStrength *= corporateBoost
		}
	}
}

// RevenueProxies are boolean hints that an organization has commercial
// weight behind it.
type RevenueProxies struct {
	VerifiedDomain     bool `json:"verified_domain"`
	ManyMembers        bool `json:"many_members"`
	HasWebsite         bool `json:"has_website"`
	ProfessionalReadme bool `json:"professional_readme"`
}

// ComputeRevenueProxies derives commercial-weight hints from org metadata.
func ComputeRevenueProxies(scan *types.ScanContext) RevenueProxies {
	return RevenueProxies{
		VerifiedDomain:     scan.IsVerified,
		ManyMembers:        scan.OrgPublicMembers > 10,
		HasWebsite:         scan.OrgBlog != "" || scan.Website != "",
		ProfessionalReadme: scan.OrgDescription != "",
	}
}

// repoIndex builds a name lookup over the scanned repos.
func repoIndex(scan *types.ScanContext) map[string]*types.RepoMeta {
	idx := make(map[string]*types.RepoMeta, len(scan.ReposScanned))
	for i := range scan.ReposScanned {
		idx[scan.ReposScanned[i].Name] = &scan.ReposScanned[i]
	}
	return idx
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
