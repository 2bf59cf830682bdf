package monitoring

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// AlertSeverity represents the severity level of an alert.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityError    AlertSeverity = "error"
	SeverityCritical AlertSeverity = "critical"
)

// AlertRule watches one metric against a threshold. The metric names map
// onto Metrics getters; there is no query language.
type AlertRule struct {
	Name        string
	Metric      string // "error_rate", "p95_response_ms", "heap_percent", "ratelimit_fallbacks"
	Threshold   float64
	Severity    AlertSeverity
	Description string
	// For is how long the condition must clear before the alert resolves.
	For time.Duration
}

// Alert is one fired rule with its observed value.
type Alert struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Severity    AlertSeverity `json:"severity"`
	Value       float64       `json:"value"`
	Threshold   float64       `json:"threshold"`
	FiredAt     time.Time     `json:"fired_at"`
	LastAboveAt time.Time     `json:"last_above_at"`
}

// AlertManager periodically evaluates rules against live metrics and
// surfaces state changes through the structured log. Alert delivery is
// whatever tails the log; there is no notifier fan-out here.
type AlertManager struct {
	rules    []AlertRule
	metrics  *Metrics
	logger   *Logger
	interval time.Duration

	mu     sync.Mutex
	active map[string]*Alert
}

// NewAlertManager creates an alert manager over the given metrics.
func NewAlertManager(metrics *Metrics, logger *Logger, interval time.Duration) *AlertManager {
	return &AlertManager{
		rules:    append([]AlertRule(nil), DefaultAlertRules...),
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		active:   make(map[string]*Alert),
	}
}

// AddRule adds an alert rule.
func (am *AlertManager) AddRule(rule AlertRule) {
	am.rules = append(am.rules, rule)
}

// Start runs the evaluation loop until the context is cancelled.
func (am *AlertManager) Start(ctx context.Context) {
	ticker := time.NewTicker(am.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			am.evaluate()
		}
	}
}

func (am *AlertManager) evaluate() {
	now := time.Now()

	am.mu.Lock()
	defer am.mu.Unlock()

	for _, rule := range am.rules {
		value, ok := am.metricValue(rule.Metric)
		if !ok {
			am.logger.SystemLogger("unknown_alert_metric", rule.Metric)
			continue
		}

		alert, firing := am.active[rule.Name]
		above := value > rule.Threshold

		switch {
		case above && !firing:
			alert = &Alert{
				Name:        rule.Name,
				Description: rule.Description,
				Severity:    rule.Severity,
				Value:       value,
				Threshold:   rule.Threshold,
				FiredAt:     now,
				LastAboveAt: now,
			}
			am.active[rule.Name] = alert
			am.logger.Warn("Alert Fired",
				"alert", rule.Name,
				"severity", rule.Severity,
				"value", value,
				"threshold", rule.Threshold,
				"description", rule.Description,
			)
		case above && firing:
			alert.Value = value
			alert.LastAboveAt = now
		case !above && firing:
			if now.Sub(alert.LastAboveAt) >= rule.For {
				delete(am.active, rule.Name)
				am.logger.Info("Alert Resolved",
					"alert", rule.Name,
					"fired_for", now.Sub(alert.FiredAt).String(),
				)
			}
		}
	}
}

func (am *AlertManager) metricValue(metric string) (float64, bool) {
	switch metric {
	case "error_rate":
		return am.metrics.ErrorRatePercent(), true
	case "p95_response_ms":
		return float64(am.metrics.GetPercentileResponseTime(95)) / 1e6, true
	case "heap_percent":
		return am.metrics.HeapUsagePercent(), true
	case "ratelimit_fallbacks":
		return float64(atomic.LoadInt64(&am.metrics.RateLimitFallbackCount)), true
	default:
		return 0, false
	}
}

// ActiveAlerts returns a snapshot of currently firing alerts.
func (am *AlertManager) ActiveAlerts() []Alert {
	am.mu.Lock()
	defer am.mu.Unlock()

	out := make([]Alert, 0, len(am.active))
	for _, a := range am.active {
		out = append(out, *a)
	}
	return out
}

// DefaultAlertRules cover the failure modes worth paging on for a
// stateless scoring service.
var DefaultAlertRules = []AlertRule{
	{
		Name:        "HighErrorRate",
		Metric:      "error_rate",
		Threshold:   10.0,
		Severity:    SeverityWarning,
		Description: "More than 10% of requests are failing",
		For:         5 * time.Minute,
	},
	{
		Name:        "SlowScoring",
		Metric:      "p95_response_ms",
		Threshold:   1000.0,
		Severity:    SeverityWarning,
		Description: "p95 response time is above 1s",
		For:         2 * time.Minute,
	},
	{
		Name:        "HighHeapUsage",
		Metric:      "heap_percent",
		Threshold:   90.0,
		Severity:    SeverityCritical,
		Description: "Heap allocation is above 90% of reserved memory",
		For:         time.Minute,
	},
	{
		Name:        "RateLimiterDegraded",
		Metric:      "ratelimit_fallbacks",
		Threshold:   100,
		Severity:    SeverityError,
		Description: "Rate limiting fell back to in-memory repeatedly, Redis is likely down",
		For:         5 * time.Minute,
	},
}
