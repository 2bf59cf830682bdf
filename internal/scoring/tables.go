package scoring

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// InteractionBonus is a log-odds bonus added when both signal families in
// a pair are present.
type InteractionBonus struct {
	A     string  `yaml:"a" json:"a"`
	B     string  `yaml:"b" json:"b"`
	Bonus float64 `yaml:"bonus" json:"bonus"`
}

// Thresholds are the P(intent) cut-offs for sales actions.
type Thresholds struct {
	HotLead  float64 `yaml:"hot_lead" json:"hot_lead"`
	WarmLead float64 `yaml:"warm_lead" json:"warm_lead"`
	Monitor  float64 `yaml:"monitor" json:"monitor"`
	Cold     float64 `yaml:"cold" json:"cold"`
}

// ReadinessWeights weight the four readiness components.
type ReadinessWeights struct {
	Preparation   float64 `yaml:"preparation" json:"preparation"`
	Velocity      float64 `yaml:"velocity" json:"velocity"`
	LaunchGap     float64 `yaml:"launch_gap" json:"launch_gap"`
	PainIntensity float64 `yaml:"pain_intensity" json:"pain_intensity"`
}

// OrgScoreWeights weight the five org composite components.
type OrgScoreWeights struct {
	Peak                   float64 `yaml:"peak" json:"peak"`
	MeanTop3               float64 `yaml:"mean_top3" json:"mean_top3"`
	Breadth                float64 `yaml:"breadth" json:"breadth"`
	HighValueConcentration float64 `yaml:"high_value_concentration" json:"high_value_concentration"`
	Momentum               float64 `yaml:"momentum" json:"momentum"`
}

// SizeThreshold bounds one company-size bucket.
type SizeThreshold struct {
	MaxStars int `yaml:"max_stars" json:"max_stars"`
	MaxRepos int `yaml:"max_repos" json:"max_repos"`
}

// DetectorPatterns hold the keyword lists the derived-signal detectors
// match against evidence and file paths. All matching is substring and
// case-insensitive except FeatureFlagLocale, which holds regexps.
type DetectorPatterns struct {
	TMSFilePatterns   []string `yaml:"tms_file_patterns" json:"tms_file_patterns"`
	TMSCLIKeywords    []string `yaml:"tms_cli_keywords" json:"tms_cli_keywords"`
	CICDKeywords      []string `yaml:"ci_cd_keywords" json:"ci_cd_keywords"`
	CICDActions       []string `yaml:"ci_cd_actions" json:"ci_cd_actions"`
	FigmaKeywords     []string `yaml:"figma_keywords" json:"figma_keywords"`
	MonorepoPatterns  []string `yaml:"monorepo_patterns" json:"monorepo_patterns"`
	IntlAPIPatterns   []string `yaml:"intl_api_patterns" json:"intl_api_patterns"`
	FeatureFlagLocale []string `yaml:"feature_flag_locale" json:"feature_flag_locale"`
}

// Tables bundles every tunable constant of the scoring engine: WoE values,
// strengths, half-lives, priors, bonuses, weights and detector keywords.
// Load partial overrides from YAML with LoadTables.
type Tables struct {
	WoE        map[string]float64 `yaml:"woe" json:"woe"`
	DefaultWoE float64            `yaml:"default_woe" json:"default_woe"`

	Categories map[string]SignalCategory `yaml:"categories" json:"categories"`

	// HalfLifeDays drives exponential decay per signal category.
	HalfLifeDays map[SignalCategory]float64 `yaml:"half_life_days" json:"half_life_days"`

	RawStrength        map[string]float64 `yaml:"raw_strength" json:"raw_strength"`
	DefaultRawStrength float64            `yaml:"default_raw_strength" json:"default_raw_strength"`

	InteractionBonuses []InteractionBonus          `yaml:"interaction_bonuses" json:"interaction_bonuses"`
	SegmentPriors      map[MaturitySegment]float64 `yaml:"segment_priors" json:"segment_priors"`

	Thresholds       Thresholds               `yaml:"thresholds" json:"thresholds"`
	ReadinessWeights ReadinessWeights         `yaml:"readiness_weights" json:"readiness_weights"`
	OrgScoreWeights  OrgScoreWeights          `yaml:"org_score_weights" json:"org_score_weights"`
	SizeThresholds   map[string]SizeThreshold `yaml:"size_thresholds" json:"size_thresholds"`

	Detectors DetectorPatterns `yaml:"detectors" json:"detectors"`
}

// fallbackHalfLifeDays applies when a category has no half-life entry.
const fallbackHalfLifeDays = 60

// DefaultTables returns the calibrated production tables.
func DefaultTables() *Tables {
	return &Tables{
		WoE: map[string]float64{
			// Strong signals
			"smoking_gun_fork":                2.5,
			"dependency_injection":            1.8,
			"dependency_injection_preparing":  2.2,
			"ghost_branch":                    1.5,
			"ghost_branch_active":             2.0,
			// Medium signals
			"rfc_discussion":            1.2,
			"rfc_discussion_high":       1.8,
			"documentation_intent":      0.8,
			"documentation_intent_high": 1.3,
			// TMS / CI / infrastructure
			"tms_config_file":       2.0,
			"ci_cd_i18n_workflow":   1.6,
			"figma_i18n_plugin":     1.4,
			"monorepo_i18n_package": 1.5,
			"feature_flag_locale":   1.0,
			"intl_number_format":    0.6,
			// Enhanced heuristics
			"job_posting_intent":       1.4,
			"regional_domain":          0.7,
			"headless_cms_i18n":        1.2,
			"payment_multi_currency":   1.0,
			"timezone_library":         0.5,
			"ci_localization_pipeline": 1.6,
			"legal_compliance":         0.6,
			"social_multi_region":      0.5,
			"locale_update_velocity":   1.3,
			"api_international":        0.8,
			// Negative evidence
			"already_launched":       -1.5,
			"mega_corp_launched":     -1.0,
			"mega_corp_weak_signals": -0.8,
			"fork_repo":              -2.0,
			"archived_repo":          -2.0,
			"tutorial_repo":          -1.5,
			"sdk_library_repo":       -1.2,
		},
		DefaultWoE: 0.3,

		Categories: map[string]SignalCategory{
			"smoking_gun_fork":         CategoryFork,
			"dependency_injection":     CategoryLibraryInstall,
			"ghost_branch":             CategoryBranchCommit,
			"rfc_discussion":           CategoryPRIssue,
			"documentation_intent":     CategoryDocMention,
			"tms_config_file":          CategoryTMSFile,
			"ci_cd_i18n_workflow":      CategoryCICD,
			"ci_localization_pipeline": CategoryCICD,
			"figma_i18n_plugin":        CategoryConfigChange,
			"monorepo_i18n_package":    CategoryInfrastructure,
			"feature_flag_locale":      CategoryInfrastructure,
			"intl_number_format":       CategoryInfrastructure,
			"job_posting_intent":       CategoryEnhancedHeuristic,
			"regional_domain":          CategoryEnhancedHeuristic,
			"headless_cms_i18n":        CategoryEnhancedHeuristic,
			"payment_multi_currency":   CategoryEnhancedHeuristic,
			"timezone_library":         CategoryEnhancedHeuristic,
			"legal_compliance":         CategoryEnhancedHeuristic,
			"social_multi_region":      CategoryEnhancedHeuristic,
			"locale_update_velocity":   CategoryEnhancedHeuristic,
			"api_international":        CategoryEnhancedHeuristic,
			"already_launched":         CategoryConfigChange,
		},

		HalfLifeDays: map[SignalCategory]float64{
			CategoryBranchCommit:      21,
			CategoryLibraryInstall:    45,
			CategoryPRIssue:           30,
			CategoryConfigChange:      60,
			CategoryDocMention:        90,
			CategoryTMSFile:           60,
			CategoryCICD:              45,
			CategoryInfrastructure:    90,
			CategoryEnhancedHeuristic: 60,
			CategoryFork:              45,
		},

		RawStrength: map[string]float64{
			"smoking_gun_fork":               3.0,
			"dependency_injection":           2.0,
			"dependency_injection_preparing": 2.5,
			"ghost_branch":                   1.5,
			"ghost_branch_active":            2.0,
			"rfc_discussion":                 1.2,
			"rfc_discussion_high":            2.0,
			"documentation_intent":           0.8,
			"documentation_intent_high":      1.5,
			"tms_config_file":                2.5,
			"ci_cd_i18n_workflow":            1.8,
			"figma_i18n_plugin":              1.5,
			"monorepo_i18n_package":          1.8,
			"feature_flag_locale":            1.0,
			"intl_number_format":             0.6,
			"job_posting_intent":             1.5,
			"regional_domain":                0.7,
			"headless_cms_i18n":              1.3,
			"payment_multi_currency":         1.0,
			"timezone_library":               0.5,
			"ci_localization_pipeline":       1.8,
			"legal_compliance":               0.6,
			"social_multi_region":            0.5,
			"locale_update_velocity":         1.5,
			"api_international":              0.8,
			"already_launched":               0.5,
		},
		DefaultRawStrength: 1.0,

		InteractionBonuses: []InteractionBonus{
			{A: "dependency_injection", B: "ghost_branch", Bonus: 0.8},
			{A: "dependency_injection", B: "rfc_discussion", Bonus: 0.6},
			{A: "smoking_gun_fork", B: "ghost_branch", Bonus: 1.0},
			{A: "rfc_discussion", B: "ghost_branch", Bonus: 0.5},
			{A: "tms_config_file", B: "ci_cd_i18n_workflow", Bonus: 0.7},
			{A: "dependency_injection", B: "tms_config_file", Bonus: 0.6},
			{A: "job_posting_intent", B: "dependency_injection", Bonus: 0.5},
			{A: "headless_cms_i18n", B: "dependency_injection", Bonus: 0.4},
		},

		SegmentPriors: map[MaturitySegment]float64{
			SegmentPreI18n:          0.05,
			SegmentPreparing:        0.60,
			SegmentActiveImpl:       0.75,
			SegmentRecentlyLaunched: 0.30,
			SegmentMatureMidmarket:  0.20,
			SegmentEnterpriseScale:  0.40,
		},

		Thresholds: Thresholds{
			HotLead:  0.75,
			WarmLead: 0.50,
			Monitor:  0.30,
			Cold:     0.15,
		},

		ReadinessWeights: ReadinessWeights{
			Preparation:   0.40,
			Velocity:      0.30,
			LaunchGap:     0.20,
			PainIntensity: 0.10,
		},

		OrgScoreWeights: OrgScoreWeights{
			Peak:                   0.30,
			MeanTop3:               0.25,
			Breadth:                0.20,
			HighValueConcentration: 0.15,
			Momentum:               0.10,
		},

		SizeThresholds: map[string]SizeThreshold{
			"small":  {MaxStars: 500, MaxRepos: 20},
			"medium": {MaxStars: 5000, MaxRepos: 100},
			"large":  {MaxStars: 20000, MaxRepos: 400},
		},

		Detectors: DetectorPatterns{
			TMSFilePatterns: []string{
				"crowdin.yml", "crowdin.yaml", ".crowdin.yml",
				"lokalise.yml", "lokalise.yaml", ".lokalise.yml",
				"phrase.yml", ".phrase.yml", ".phraseapp.yml",
				"transifex.yml", ".tx/config",
				"weblate.yaml", ".weblate",
				"l10n.toml", "smartling.json", "memsource.json",
			},
			TMSCLIKeywords: []string{
				"crowdin upload", "crowdin download",
				"lokalise2", "tx push", "tx pull",
				"phrase push", "phrase pull", "wlc push",
			},
			CICDKeywords: []string{
				"crowdin", "lokalise", "phrase", "transifex", "weblate",
				"poeditor", "pontoon", "smartling", "memsource",
				"upload-translations", "download-translations",
				"sync-translations", "pull-translations", "push-translations",
				"i18n-sync", "l10n-sync", "translation-sync",
			},
			CICDActions: []string{
				"crowdin/github-action",
				"lokalise/lokalise-cli-action",
				"transifex/cli-action",
				"phrase/phrase-github-action",
			},
			FigmaKeywords: []string{
				"figma i18n", "figma localization", "figma translate",
				"figma-plugin i18n", "design tokens locale",
			},
			MonorepoPatterns: []string{
				"packages/i18n", "packages/locales", "packages/intl",
				"libs/i18n", "libs/l10n", "@org/i18n",
			},
			IntlAPIPatterns: []string{
				"intl.numberformat", "intl.datetimeformat",
				"intl.relativetimeformat", "intl.pluralrules",
				"tolocalestring", "tolocaledatestring",
			},
			FeatureFlagLocale: []string{
				`locale[_-]?(flag|gate|rollout)`,
				`i18n[_-]?(flag|rollout|enabled)`,
				`feature[_-]?flag.*locale`,
				`enable[_-]?(locale|language)[_-]?`,
			},
		},
	}
}

// LoadTables reads YAML overrides from path and merges them onto the
// defaults. A missing file returns the defaults unchanged, so deployments
// only write the keys they tune.
func LoadTables(path string) (*Tables, error) {
	tables := DefaultTables()

	if path == "" {
		return tables, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}
	if err := yaml.Unmarshal(data, tables); err != nil {
		return nil, fmt.Errorf("failed to parse tables file: %w", err)
	}
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tables file %s: %w", path, err)
	}

	return tables, nil
}

// Validate rejects table values that would corrupt scoring math.
func (t *Tables) Validate() error {
	for cat, hl := range t.HalfLifeDays {
		if hl <= 0 {
			return fmt.Errorf("half-life for category %q must be positive, got %v", cat, hl)
		}
	}
	for seg, p := range t.SegmentPriors {
		if p <= 0 || p >= 1 {
			return fmt.Errorf("prior for segment %q must be in (0, 1), got %v", seg, p)
		}
	}
	for typ, s := range t.RawStrength {
		if s < 0 {
			return fmt.Errorf("raw strength for %q must be non-negative, got %v", typ, s)
		}
	}
	if t.DefaultRawStrength < 0 {
		return fmt.Errorf("default raw strength must be non-negative, got %v", t.DefaultRawStrength)
	}
	for _, p := range t.Detectors.FeatureFlagLocale {
		if _, err := regexp.Compile("(?i)" + p); err != nil {
			return fmt.Errorf("invalid feature flag pattern %q: %w", p, err)
		}
	}
	return nil
}

// halfLifeFor returns the decay half-life for a category.
func (t *Tables) halfLifeFor(cat SignalCategory) float64 {
	if hl, ok := t.HalfLifeDays[cat]; ok {
		return hl
	}
	return fallbackHalfLifeDays
}

// woeFor returns the weight of evidence for a resolved signal type.
func (t *Tables) woeFor(signalType string) float64 {
	if w, ok := t.WoE[signalType]; ok {
		return w
	}
	return t.DefaultWoE
}

// strengthFor returns the raw strength for a resolved signal type.
func (t *Tables) strengthFor(signalType string) float64 {
	if s, ok := t.RawStrength[signalType]; ok {
		return s
	}
	return t.DefaultRawStrength
}

// categoryFor returns the decay category for a resolved signal type.
func (t *Tables) categoryFor(signalType string) SignalCategory {
	if c, ok := t.Categories[signalType]; ok {
		return c
	}
	return CategoryDocMention
}

// priorFor returns the Bayesian prior P(intent) for a segment.
func (t *Tables) priorFor(segment MaturitySegment) float64 {
	if p, ok := t.SegmentPriors[segment]; ok {
		return p
	}
	return 0.10
}
