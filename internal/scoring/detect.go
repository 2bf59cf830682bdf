package scoring

import (
	"regexp"
	"strings"

	"github.com/localeintel/pulse/internal/types"
)

// detectorRule parameterizes one derived-signal pattern family. The four
// detector groups (TMS, CI/CD, Figma, infrastructure) all run through the
// same matching loop and differ only in their rules.
type detectorRule struct {
	patterns []string
	regexes  []*regexp.Regexp // set instead of patterns for regex rules

	keyPrefix   string // dedup key prefix within the group
	matchFiles  bool   // also match the signal's file path
	requireWord string // evidence must additionally contain this word

	outType      string
	evidence     string // evidence prefix; matched pattern appended
	bareEvidence bool   // emit the evidence prefix without the match
	priority     string
	category     SignalCategory
}

// detectorGroup shares one dedup scope across its rules, so each pattern
// fires at most once per organization.
type detectorGroup []detectorRule

func buildDetectorGroups(t *Tables) []detectorGroup {
	d := &t.Detectors
	return []detectorGroup{
		{
			{
				patterns:   d.TMSFilePatterns,
				matchFiles: true,
				outType:    "tms_config_file",
				evidence:   "TMS config detected: ",
				priority:   "HIGH",
				category:   CategoryTMSFile,
			},
			{
				patterns:  d.TMSCLIKeywords,
				keyPrefix: "cli:",
				outType:   "tms_config_file",
				evidence:  "TMS CLI reference: ",
				priority:  "HIGH",
				category:  CategoryTMSFile,
			},
		},
		{
			{
				patterns:    d.CICDKeywords,
				requireWord: "workflow",
				outType:     "ci_cd_i18n_workflow",
				evidence:    "CI/CD i18n workflow: ",
				priority:    "HIGH",
				category:    CategoryCICD,
			},
			{
				patterns:  d.CICDActions,
				keyPrefix: "action:",
				outType:   "ci_cd_i18n_workflow",
				evidence:  "CI/CD i18n action: ",
				priority:  "HIGH",
				category:  CategoryCICD,
			},
		},
		{
			{
				patterns: d.FigmaKeywords,
				outType:  "figma_i18n_plugin",
				evidence: "Figma i18n reference: ",
				priority: "MEDIUM",
				category: CategoryConfigChange,
			},
		},
		{
			{
				patterns:   d.MonorepoPatterns,
				keyPrefix:  "monorepo:",
				matchFiles: true,
				outType:    "monorepo_i18n_package",
				evidence:   "Monorepo i18n package: ",
				priority:   "HIGH",
				category:   CategoryInfrastructure,
			},
			{
				patterns:  d.IntlAPIPatterns,
				keyPrefix: "intl:",
				outType:   "intl_number_format",
				evidence:  "Intl API usage: ",
				priority:  "LOW",
				category:  CategoryInfrastructure,
			},
			{
				regexes:      compileLocalePatterns(d.FeatureFlagLocale),
				patterns:     d.FeatureFlagLocale,
				keyPrefix:    "ff:",
				outType:      "feature_flag_locale",
				evidence:     "Feature flag locale reference detected",
				bareEvidence: true,
				priority:     "MEDIUM",
				category:     CategoryInfrastructure,
			},
		},
	}
}

// compileLocalePatterns compiles case-insensitive regexes, dropping any
// pattern that does not compile. LoadTables validates user-supplied
// patterns up front, so drops only happen for hand-built tables.
func compileLocalePatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			continue
		}
		out[i] = re
	}
	return out
}

// detectDerivedSignals scans existing signal evidence for TMS configs,
// CI/CD localization workflows, Figma references and infrastructure
// patterns, emitting synthetic signals for anything found. No new API
// calls are made; everything derives from data already in the scan.
func (e *Engine) detectDerivedSignals(scan *types.ScanContext) []*EnrichedSignal {
	var out []*EnrichedSignal

	for _, group := range e.detectors {
		seen := make(map[string]bool)

		for i := range scan.Signals {
			raw := &scan.Signals[i]
			evidence := strings.ToLower(firstNonEmpty(raw.Evidence, raw.Signal))
			filePath := strings.ToLower(firstNonEmpty(raw.File, raw.Link))

			for _, rule := range group {
				for pi, pattern := range rule.patterns {
					if !rule.matchPattern(pi, pattern, evidence, filePath) {
						continue
					}
					key := rule.keyPrefix + strings.ToLower(pattern)
					if seen[key] {
						continue
					}
					seen[key] = true
					out = append(out, e.syntheticSignal(rule, pattern, raw, scan.OrgLogin))
				}
			}
		}
	}

	return out
}

func (r *detectorRule) matchPattern(idx int, pattern, evidence, filePath string) bool {
	if r.regexes != nil {
		re := r.regexes[idx]
		return re != nil && re.MatchString(evidence)
	}

	p := strings.ToLower(pattern)
	matched := strings.Contains(evidence, p)
	if r.matchFiles && !matched {
		matched = strings.Contains(filePath, p)
	}
	if matched && r.requireWord != "" {
		matched = strings.Contains(evidence, r.requireWord)
	}
	return matched
}

func (e *Engine) syntheticSignal(rule detectorRule, pattern string, raw *types.RawSignal, org string) *EnrichedSignal {
	evidence := rule.evidence
	if !rule.bareEvidence {
		evidence += pattern
	}
	strength := e.tables.strengthFor(rule.outType)

	return &EnrichedSignal{
		SignalType:       rule.outType,
		Evidence:         evidence,
		Company:          org,
		Link:             raw.Link,
		Priority:         rule.priority,
		Repo:             raw.Repo,
		SignalCategory:   rule.category,
		WoEValue:         e.tables.woeFor(rule.outType),
		RawStrength:      strength,
		DecayedStrength:  strength,
		FilterMultiplier: 1.0,
		Raw:              raw,
	}
}
