package scoring

import (
	"strings"
	"time"

	"github.com/localeintel/pulse/internal/types"
)

// enrichSignals wraps every raw scanner signal with scoring metadata and
// appends synthetic signals derived from evidence already in the scan.
func (e *Engine) enrichSignals(scan *types.ScanContext) []*EnrichedSignal {
	now := e.now()
	enriched := make([]*EnrichedSignal, 0, len(scan.Signals))

	for i := range scan.Signals {
		raw := &scan.Signals[i]
		resolved := resolveSignalType(raw, now)

		es := &EnrichedSignal{
			SignalType:       resolved,
			Evidence:         firstNonEmpty(raw.Evidence, raw.Signal),
			Company:          raw.Company,
			Link:             raw.Link,
			Priority:         firstNonEmpty(raw.Priority, "MEDIUM"),
			Repo:             raw.Repo,
			FilePath:         firstNonEmpty(raw.File, raw.Link),
			DetectedAt:       raw.DetectedAt,
			CreatedAt:        firstNonEmpty(raw.CreatedAt, raw.PushedAt, raw.Timestamp),
			SignalCategory:   e.tables.categoryFor(resolved),
			WoEValue:         e.tables.woeFor(resolved),
			RawStrength:      e.tables.strengthFor(resolved),
			FilterMultiplier: 1.0,
			AgeInDays:        signalAge(raw, now),
			SourceContext:    sourceContext(raw),
			Raw:              raw,
		}
		es.DecayedStrength = es.RawStrength

		enriched = append(enriched, es)
	}

	return append(enriched, e.detectDerivedSignals(scan)...)
}

// resolveSignalType applies the sub-type override rules, first match wins:
// a preparing or gap-verified dependency signal outranks the base type, a
// HIGH priority discussion or doc signal gets its _high variant, and a
// branch pushed within 14 days counts as active.
func resolveSignalType(raw *types.RawSignal, now time.Time) string {
	sigType := firstNonEmpty(raw.Type, raw.Signal, "unknown")

	switch sigType {
	case "dependency_injection":
		if raw.GoldilocksStatus == "preparing" || raw.GapVerified {
			return "dependency_injection_preparing"
		}
	case "rfc_discussion":
		if raw.Priority == "HIGH" {
			return "rfc_discussion_high"
		}
	case "documentation_intent":
		if raw.Priority == "HIGH" {
			return "documentation_intent_high"
		}
	case "ghost_branch":
		pushed := firstNonEmpty(raw.PushedAt, raw.LastCommitDate)
		if pushed != "" {
			if age := ageFromTimestamp(pushed, now); age != nil && *age <= 14 {
				return "ghost_branch_active"
			}
		}
	}
	return sigType
}

// signalAge finds the first usable timestamp on a signal and returns its
// age in whole days, or nil when nothing parses.
func signalAge(raw *types.RawSignal, now time.Time) *int {
	ts := firstNonEmpty(raw.DetectedAt, raw.CreatedAt, raw.PushedAt, raw.LastCommitDate, raw.Timestamp)
	if ts == "" {
		return nil
	}
	return ageFromTimestamp(ts, now)
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ageFromTimestamp parses scanner timestamps, which arrive in a handful
// of ISO-ish shapes. Anything past second precision is dropped before
// parsing. Returns nil for unparseable input, never an error.
func ageFromTimestamp(ts string, now time.Time) *int {
	if len(ts) > 19 {
		ts = ts[:19]
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, ts)
		if err != nil {
			continue
		}
		days := int(now.UTC().Sub(t).Hours() / 24)
		if days < 0 {
			days = 0
		}
		return &days
	}
	return nil
}

// sourceContext builds the human-readable provenance string.
func sourceContext(raw *types.RawSignal) string {
	var parts []string
	if raw.Repo != "" {
		parts = append(parts, "repo:"+raw.Repo)
	}
	file := firstNonEmpty(raw.File, raw.Link)
	if file != "" && !strings.Contains(file, "github.com") {
		parts = append(parts, "file:"+file)
	}
	if raw.Type != "" {
		parts = append(parts, "type:"+raw.Type)
	}
	return strings.Join(parts, " | ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
