package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyMaturity(t *testing.T) {
	e := testEngine()

	t.Run("no signals", func(t *testing.T) {
		assert.Equal(t, SegmentPreI18n, classifyMaturity(nil, emptyScan()))
	})

	t.Run("preparing org", func(t *testing.T) {
		scan := preparingScan()
		enriched := e.enrichSignals(scan)
		got := classifyMaturity(enriched, scan)
		// Library plus branch work lands in preparing or active implementation.
		assert.Contains(t, []MaturitySegment{SegmentPreparing, SegmentActiveImpl}, got)
	})

	t.Run("enterprise scale", func(t *testing.T) {
		scan := enterpriseScan()
		enriched := e.enrichSignals(scan)
		assert.Equal(t, SegmentEnterpriseScale, classifyMaturity(enriched, scan))
	})

	t.Run("recently launched", func(t *testing.T) {
		scan := launchedScan()
		enriched := e.enrichSignals(scan)
		assert.Equal(t, SegmentRecentlyLaunched, classifyMaturity(enriched, scan))
	})

	t.Run("all signals filtered", func(t *testing.T) {
		scan := preparingScan()
		enriched := e.enrichSignals(scan)
		for _, s := range enriched {
			s.IsFiltered = true
		}
		assert.Equal(t, SegmentPreI18n, classifyMaturity(enriched, scan))
	})

	t.Run("launched with tms is mature", func(t *testing.T) {
		signals := []*EnrichedSignal{
			{SignalType: "already_launched", FilterMultiplier: 1.0},
			{SignalType: "tms_config_file", FilterMultiplier: 1.0},
		}
		assert.Equal(t, SegmentMatureMidmarket, classifyMaturity(signals, emptyScan()))
	})

	t.Run("big org needs two signal families", func(t *testing.T) {
		scan := enterpriseScan()
		signals := []*EnrichedSignal{
			{SignalType: "dependency_injection", FilterMultiplier: 1.0},
		}
		got := classifyMaturity(signals, scan)
		assert.NotEqual(t, SegmentEnterpriseScale, got)
		assert.Equal(t, SegmentPreparing, got)
	})
}

func TestCalculateConfidence(t *testing.T) {
	e := testEngine()

	t.Run("no signals", func(t *testing.T) {
		assert.Equal(t, 0.0, calculateConfidence(nil, SegmentPreI18n))
	})

	t.Run("preparing coverage", func(t *testing.T) {
		scan := preparingScan()
		enriched := e.enrichSignals(scan)
		conf := calculateConfidence(enriched, SegmentPreparing)
		assert.Greater(t, conf, 0.0)
		assert.LessOrEqual(t, conf, 1.0)
	})

	t.Run("enterprise diversity", func(t *testing.T) {
		scan := enterpriseScan()
		enriched := e.enrichSignals(scan)
		conf := calculateConfidence(enriched, SegmentEnterpriseScale)
		assert.Greater(t, conf, 0.2)
	})

	t.Run("pre-i18n with stray signal is a coin flip", func(t *testing.T) {
		signals := []*EnrichedSignal{
			{SignalType: "regional_domain", FilterMultiplier: 1.0},
		}
		assert.Equal(t, 0.5, calculateConfidence(signals, SegmentPreI18n))
	})

	t.Run("single signal skips entropy penalty", func(t *testing.T) {
		signals := []*EnrichedSignal{
			{SignalType: "already_launched", FilterMultiplier: 1.0},
		}
		conf := calculateConfidence(signals, SegmentRecentlyLaunched)
		// coverage 1/3, entropy factor 1 → 0.5
		assert.InDelta(t, 0.5, conf, 1e-9)
	})
}

func TestExpectedSignalTypes(t *testing.T) {
	assert.Empty(t, expectedSignalTypes(SegmentPreI18n))
	assert.Len(t, expectedSignalTypes(SegmentPreparing), 5)
	assert.True(t, expectedSignalTypes(SegmentEnterpriseScale)["smoking_gun_fork"])
	assert.True(t, expectedSignalTypes(SegmentMatureMidmarket)["tms_config_file"])
}
