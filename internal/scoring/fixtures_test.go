package scoring

import (
	"testing"
	"time"

	"github.com/localeintel/pulse/internal/types"
)

// fixedNow pins the engine clock so signal ages stay deterministic.
var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	e := NewEngine(nil)
	e.now = func() time.Time { return fixedNow }
	return e
}

func daysAgo(days int) string {
	return fixedNow.AddDate(0, 0, -days).Format(time.RFC3339)
}

func intPtr(v int) *int { return &v }

func findByBaseType(t *testing.T, signals []*EnrichedSignal, base string) *EnrichedSignal {
	t.Helper()
	for _, s := range signals {
		if s.BaseType() == base {
			return s
		}
	}
	t.Fatalf("no signal with base type %q", base)
	return nil
}

// emptyScan has zero signals and should be rejected at stage 1.
func emptyScan() *types.ScanContext {
	return &types.ScanContext{
		CompanyName:      "EmptyCorp",
		OrgLogin:         "emptycorp",
		OrgName:          "EmptyCorp",
		OrgURL:           "https://github.com/emptycorp",
		OrgPublicRepos:   5,
		OrgPublicMembers: 2,
		TotalStars:       100,
		Signals:          []types.RawSignal{},
		ReposScanned:     []types.RepoMeta{},
	}
}

// preparingScan is a company in the Goldilocks Zone: library installed,
// branch work underway, nothing shipped.
func preparingScan() *types.ScanContext {
	recent := daysAgo(5)
	return &types.ScanContext{
		CompanyName:      "PrepCorp",
		OrgLogin:         "prepcorp",
		OrgName:          "PrepCorp Inc.",
		OrgURL:           "https://github.com/prepcorp",
		OrgDescription:   "Building great products",
		OrgPublicRepos:   15,
		OrgPublicMembers: 8,
		TotalStars:       2000,
		Signals: []types.RawSignal{
			{
				Company:          "prepcorp",
				Signal:           "Dependency Injection",
				Evidence:         "Found react-i18next in package.json (webapp). No locale folders detected.",
				Link:             "https://github.com/prepcorp/webapp/blob/main/package.json",
				Priority:         "HIGH",
				Type:             "dependency_injection",
				Repo:             "webapp",
				File:             "package.json",
				GoldilocksStatus: "preparing",
				GapVerified:      true,
				CreatedAt:        recent,
			},
			{
				Company:   "prepcorp",
				Signal:    "Ghost Branch",
				Evidence:  "Branch feature/i18n found in webapp",
				Link:      "https://github.com/prepcorp/webapp/tree/feature/i18n",
				Priority:  "HIGH",
				Type:      "ghost_branch",
				Repo:      "webapp",
				PushedAt:  recent,
				CreatedAt: recent,
			},
		},
		ReposScanned: []types.RepoMeta{
			{
				Name:        "webapp",
				Stars:       500,
				Watchers:    50,
				PushedAt:    recent,
				Language:    "TypeScript",
				Description: "Main web application",
			},
		},
		Contributors: map[string]types.Contributor{
			"dev1": {Name: "Dev One", Contributions: 200, Company: "PrepCorp"},
			"dev2": {Name: "Dev Two", Contributions: 150, Company: "PrepCorp"},
		},
	}
}

// enterpriseScan is a large org with clustered signals across repos.
func enterpriseScan() *types.ScanContext {
	recent := daysAgo(10)
	return &types.ScanContext{
		CompanyName:      "MegaCorp",
		OrgLogin:         "megacorp",
		OrgName:          "MegaCorp",
		OrgURL:           "https://github.com/megacorp",
		OrgDescription:   "Enterprise software company",
		OrgPublicRepos:   500,
		OrgPublicMembers: 200,
		TotalStars:       50000,
		Signals: []types.RawSignal{
			{
				Company:   "megacorp",
				Signal:    "Smoking Gun Fork",
				Evidence:  "Forked react-i18next",
				Link:      "https://github.com/megacorp/react-i18next",
				Priority:  "HIGH",
				Type:      "smoking_gun_fork",
				Repo:      "react-i18next-fork",
				CreatedAt: recent,
			},
			{
				Company:          "megacorp",
				Signal:           "Dependency Injection",
				Evidence:         "Found i18next in platform-app",
				Link:             "https://github.com/megacorp/platform-app",
				Priority:         "HIGH",
				Type:             "dependency_injection",
				Repo:             "platform-app",
				GoldilocksStatus: "preparing",
				CreatedAt:        recent,
			},
			{
				Company:  "megacorp",
				Signal:   "Ghost Branch",
				Evidence: "Branch feature/localization in platform-app",
				Priority: "HIGH",
				Type:     "ghost_branch",
				Repo:     "platform-app",
				PushedAt: recent,
			},
			{
				Company:   "megacorp",
				Signal:    "RFC Discussion",
				Evidence:  "Issue: i18n strategy RFC",
				Link:      "https://github.com/megacorp/platform-app/issues/42",
				Priority:  "HIGH",
				Type:      "rfc_discussion",
				Repo:      "platform-app",
				CreatedAt: recent,
			},
		},
		ReposScanned: []types.RepoMeta{
			{Name: "platform-app", Stars: 5000, Watchers: 500, PushedAt: recent, Language: "TypeScript", Description: "Platform application"},
			{Name: "react-i18next-fork", Fork: true, PushedAt: recent, Language: "JavaScript"},
			{Name: "docs", Stars: 100, Watchers: 20, PushedAt: recent, Language: "Markdown", Description: "Documentation"},
		},
	}
}

// launchedScan is a company that already shipped translations.
func launchedScan() *types.ScanContext {
	old := daysAgo(200)
	return &types.ScanContext{
		CompanyName:      "LaunchedCorp",
		OrgLogin:         "launchedcorp",
		OrgName:          "LaunchedCorp",
		OrgURL:           "https://github.com/launchedcorp",
		OrgPublicRepos:   10,
		OrgPublicMembers: 5,
		TotalStars:       1000,
		Signals: []types.RawSignal{
			{
				Company:   "launchedcorp",
				Signal:    "Already Launched",
				Evidence:  "Locale folders found: locales/en, locales/fr, locales/de",
				Priority:  "LOW",
				Type:      "already_launched",
				Repo:      "main-app",
				CreatedAt: old,
			},
		},
		ReposScanned: []types.RepoMeta{
			{Name: "main-app", Stars: 500, Watchers: 50, PushedAt: old, Language: "Python"},
		},
	}
}

// forkScan carries only fork-based evidence and should be rejected.
func forkScan() *types.ScanContext {
	return &types.ScanContext{
		CompanyName:    "ForkOnly",
		OrgLogin:       "forkonly",
		OrgName:        "ForkOnly",
		OrgURL:         "https://github.com/forkonly",
		OrgPublicRepos: 3,
		TotalStars:     50,
		Signals: []types.RawSignal{
			{
				Company:  "forkonly",
				Signal:   "Dependency Injection",
				Evidence: "Found i18next in package.json",
				Priority: "HIGH",
				Type:     "dependency_injection",
				Repo:     "forked-app",
				Fork:     true,
			},
		},
		ReposScanned: []types.RepoMeta{
			{Name: "forked-app", Fork: true},
		},
	}
}

// mixedScan has one launched repo alongside three still preparing, the
// proven-buyer pattern.
func mixedScan() *types.ScanContext {
	recent := daysAgo(7)
	return &types.ScanContext{
		CompanyName:      "MixedCorp",
		OrgLogin:         "mixedcorp",
		OrgName:          "MixedCorp",
		OrgURL:           "https://github.com/mixedcorp",
		OrgDescription:   "Growing SaaS company",
		OrgPublicRepos:   20,
		OrgPublicMembers: 15,
		TotalStars:       3000,
		Signals: []types.RawSignal{
			{
				Company:   "mixedcorp",
				Signal:    "Already Launched",
				Evidence:  "Locale folders found in legacy-app",
				Type:      "already_launched",
				Repo:      "legacy-app",
				CreatedAt: recent,
			},
			{
				Company:          "mixedcorp",
				Signal:           "Dependency Injection",
				Evidence:         "Found react-i18next in new-frontend",
				Type:             "dependency_injection",
				Repo:             "new-frontend",
				GoldilocksStatus: "preparing",
				CreatedAt:        recent,
			},
			{
				Company:          "mixedcorp",
				Signal:           "Dependency Injection",
				Evidence:         "Found next-intl in portal",
				Type:             "dependency_injection",
				Repo:             "portal",
				GoldilocksStatus: "preparing",
				CreatedAt:        recent,
			},
			{
				Company:  "mixedcorp",
				Signal:   "Ghost Branch",
				Evidence: "Branch feature/i18n in mobile-app",
				Type:     "ghost_branch",
				Repo:     "mobile-app",
				PushedAt: recent,
			},
		},
		ReposScanned: []types.RepoMeta{
			{Name: "legacy-app", Stars: 1000, PushedAt: recent},
			{Name: "new-frontend", Stars: 500, PushedAt: recent},
			{Name: "portal", Stars: 300, PushedAt: recent},
			{Name: "mobile-app", Stars: 200, PushedAt: recent},
		},
		Contributors: map[string]types.Contributor{
			"eng1": {Name: "Engineer 1", Contributions: 300, Company: "MixedCorp"},
		},
	}
}
