package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/localeintel/pulse/internal/types"
)

// orgLevelRepo buckets signals that carry no repo attribution.
const orgLevelRepo = "_org_level_"

// maxRepoScore is the approximate ceiling used to normalize per-repo
// weighted scores into [0, 1].
const maxRepoScore = 10.0

var internalRepoIndicators = []string{
	"internal", ".github", "config", "infra", "devops",
	"scripts", "ops", "ci-", "cd-", "deploy",
}

var supportRepoIndicators = []string{
	"docs", "documentation", "wiki", "blog", "website",
	"landing", "marketing", "design", "assets",
}

// buildRepoScores groups signals by repo, assigns each repo a tier, and
// computes its weighted score as the sum of active decayed strengths
// times the tier weight. Result is sorted by weighted score descending;
// ties keep first-seen order.
func buildRepoScores(signals []*EnrichedSignal, scan *types.ScanContext) []*RepoScore {
	repos := repoIndex(scan)

	grouped := make(map[string][]*EnrichedSignal)
	var order []string
	for _, s := range signals {
		repo := s.Repo
		if repo == "" {
			repo = orgLevelRepo
		}
		if _, ok := grouped[repo]; !ok {
			order = append(order, repo)
		}
		grouped[repo] = append(grouped[repo], s)
	}

	scores := make([]*RepoScore, 0, len(order))
	for _, name := range order {
		repoSigs := grouped[name]
		meta := repos[name]

		rs := &RepoScore{
			RepoName:    name,
			SignalCount: len(repoSigs),
			Signals:     repoSigs,
		}
		if meta != nil {
			rs.IsFork = meta.Fork
			rs.IsArchived = meta.Archived
			rs.Stars = meta.Stars
			rs.LastPush = meta.PushedAt
		}

		if rs.IsFork || rs.IsArchived {
			rs.Tier, rs.TierWeight = 0, 0.0
		} else {
			rs.Tier, rs.TierWeight = classifyRepoTier(name)
		}

		raw := 0.0
		for _, s := range repoSigs {
			if !s.IsFiltered {
				raw += s.DecayedStrength
			}
		}
		rs.WeightedScore = raw * rs.TierWeight

		scores = append(scores, rs)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].WeightedScore > scores[j].WeightedScore
	})
	return scores
}

// classifyRepoTier buckets a repo by name: tier 3 internal tooling,
// tier 2 support/docs, tier 1 product (the default).
func classifyRepoTier(repoName string) (int, float64) {
	nameLower := strings.ToLower(repoName)

	if containsAny(nameLower, internalRepoIndicators) {
		return 3, 0.2
	}
	if containsAny(nameLower, supportRepoIndicators) {
		return 2, 0.6
	}
	return 1, 1.0
}

// scoreOrganization computes the org composite:
//
//	peak×0.30 + meanTop3×0.25 + breadth×0.20 + concentration×0.15 + momentum×0.10
//
// then multiplies in the cluster bonus and proven-buyer multiplier and
// caps at 1. Only tier>0 repos with a positive weighted score count.
func (e *Engine) scoreOrganization(repoScores []*RepoScore, signals []*EnrichedSignal, scan *types.ScanContext) *OrgScore {
	org := &OrgScore{
		ClusterBonus:          1.0,
		ProvenBuyerMultiplier: 1.0,
		RepoScores:            repoScores,
	}
	if len(repoScores) == 0 {
		return org
	}

	var activeRepos []*RepoScore
	for _, r := range repoScores {
		if r.Tier > 0 && r.WeightedScore > 0 {
			activeRepos = append(activeRepos, r)
		}
	}
	if len(activeRepos) == 0 {
		return org
	}

	allScores := make([]float64, len(activeRepos))
	maxScore := 0.0
	total := 0.0
	for i, r := range activeRepos {
		allScores[i] = r.WeightedScore
		maxScore = math.Max(maxScore, r.WeightedScore)
		total += r.WeightedScore
	}

	org.PeakScore = math.Min(1.0, maxScore/maxRepoScore)

	top3 := append([]float64(nil), allScores...)
	sort.Sort(sort.Reverse(sort.Float64Slice(top3)))
	if len(top3) > 3 {
		top3 = top3[:3]
	}
	sum3 := 0.0
	for _, v := range top3 {
		sum3 += v
	}
	org.MeanTop3 = math.Min(1.0, (sum3/float64(len(top3)))/maxRepoScore)

	totalRepos := len(scan.ReposScanned)
	if totalRepos == 0 {
		totalRepos = 1
	}
	org.Breadth = math.Min(1.0, float64(len(activeRepos))/float64(min(totalRepos, 10)))

	if total > 0 {
		org.HighValueConcentration = maxScore / total
	}

	active := activeSignals(signals)
	recent := 0
	for _, s := range active {
		if s.AgeInDays != nil && *s.AgeInDays <= 30 {
			recent++
		}
	}
	org.Momentum = float64(recent) / math.Max(float64(len(active)), 1)

	w := e.tables.OrgScoreWeights
	org.Composite = org.PeakScore*w.Peak +
		org.MeanTop3*w.MeanTop3 +
		org.Breadth*w.Breadth +
		org.HighValueConcentration*w.HighValueConcentration +
		org.Momentum*w.Momentum

	org.ClusterBonus = clusterBonus(activeRepos)
	org.Composite *= org.ClusterBonus

	org.ProvenBuyerMultiplier = provenBuyerMultiplier(signals)
	org.Composite *= org.ProvenBuyerMultiplier

	org.Composite = math.Min(1.0, org.Composite)
	return org
}

// clusterBonus rewards signal spread: 1 + 0.2 × min(repos, 10) once three
// or more active repos carry signals.
func clusterBonus(activeRepos []*RepoScore) float64 {
	withSignal := 0
	for _, r := range activeRepos {
		if r.SignalCount > 0 {
			withSignal++
		}
	}
	if withSignal >= 3 {
		return 1.0 + 0.2*float64(min(withSignal, 10))
	}
	return 1.0
}

// provenBuyerMultiplier returns 1.3 when a launched repo coexists with
// repos still preparing. An org that localized one product and is tooling
// up another has already proven it buys.
func provenBuyerMultiplier(signals []*EnrichedSignal) float64 {
	hasLaunched := false
	hasPreparing := false
	hasLibrarySignal := false

	for _, s := range signals {
		if s.IsFiltered {
			continue
		}
		switch s.BaseType() {
		case "already_launched":
			hasLaunched = true
		case "dependency_injection", "smoking_gun_fork":
			hasLibrarySignal = true
			if s.Raw != nil && s.Raw.GoldilocksStatus == "preparing" {
				hasPreparing = true
			}
		}
	}

	if !hasPreparing {
		hasPreparing = hasLibrarySignal
	}
	if hasLaunched && hasPreparing {
		return 1.3
	}
	return 1.0
}
