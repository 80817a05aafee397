package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Key is the environment variable the
// finding is about.
type Issue struct {
	Severity IssueSeverity
	Key      string
	Message  string
	Missing  bool // the key is required and absent
}

// Error implements error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Key, i.Message)
}

// ConfigurationError reports configuration that prevents a run. Missing lists
// every required key that was absent, in a stable order.
type ConfigurationError struct {
	Missing []string
	Issues  []Issue
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(e.Missing, ", "))
	}
	for _, iss := range e.Issues {
		if iss.Severity == SeverityError && !iss.Missing {
			parts = append(parts, iss.Key+": "+iss.Message)
		}
	}
	return "config: " + strings.Join(parts, "; ")
}

var knownDrivers = map[string]struct{}{"postgres": {}, "mssql": {}, "sqlite": {}}

// Validate performs static checks over cfg. It does not mutate cfg and does
// not touch the network.
func Validate(cfg *Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, key, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Key: key, Message: fmt.Sprintf(format, args...)})
	}
	missing := func(key string) {
		issues = append(issues, Issue{Severity: SeverityError, Key: key, Message: "required", Missing: true})
	}

	if _, ok := knownDrivers[cfg.DBDriver]; !ok {
		add(SeverityError, KeyDBDriver, "unknown driver %q; want postgres, mssql or sqlite", cfg.DBDriver)
	}
	if cfg.DSN == "" {
		switch cfg.DBDriver {
		case "postgres", "mssql":
			for _, kv := range []struct{ key, val string }{
				{KeyDBUser, cfg.DBUser},
				{KeyDBPassword, cfg.DBPassword},
				{KeyDBHost, cfg.DBHost},
				{KeyDBPort, cfg.DBPort},
				{KeyDBName, cfg.DBName},
			} {
				if strings.TrimSpace(kv.val) == "" {
					missing(kv.key)
				}
			}
		case "sqlite":
			if strings.TrimSpace(cfg.DBName) == "" {
				missing(KeyDBName)
			}
		}
	} else if cfg.DBDriver == "sqlite" {
		add(SeverityWarning, KeyDSN, "sqlite ignores discrete settings; %s is used as the path", KeyDSN)
	}

	if cfg.BatchSize <= 0 {
		add(SeverityError, KeyBatchSize, "must be > 0, got %d", cfg.BatchSize)
	}
	if strings.TrimSpace(cfg.SummaryTable) == "" {
		missing(KeySummaryTable)
	}
	for _, kv := range []struct{ key, val string }{
		{KeyInvoices, cfg.InvoicesTable},
		{KeyPurchases, cfg.PurchasesTable},
		{KeyPurchasePrices, cfg.PurchasePricesTable},
		{KeySales, cfg.SalesTable},
	} {
		if strings.TrimSpace(kv.val) == "" {
			missing(kv.key)
		}
	}

	switch cfg.MetricsBackend {
	case "", "none":
	case "pushgateway":
		if cfg.PushgatewayURL == "" {
			missing(KeyPushgateway)
		}
	case "datadog":
		if cfg.StatsdAddr == "" {
			missing(KeyStatsd)
		}
	default:
		add(SeverityWarning, KeyMetrics, "unknown metrics backend %q; metrics disabled", cfg.MetricsBackend)
	}

	if lvl := strings.ToLower(cfg.LogLevel); lvl != "" {
		switch lvl {
		case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
		default:
			add(SeverityWarning, KeyLogLevel, "unknown level %q; using info", cfg.LogLevel)
		}
	}
	return issues
}

// Check validates cfg and returns a *ConfigurationError when any issue has
// error severity, or nil.
func Check(cfg *Config) error {
	issues := Validate(cfg)
	var (
		missing []string
		blocked bool
	)
	for _, iss := range issues {
		if iss.Severity != SeverityError {
			continue
		}
		blocked = true
		if iss.Missing {
			missing = append(missing, iss.Key)
		}
	}
	if !blocked {
		return nil
	}
	return &ConfigurationError{Missing: missing, Issues: issues}
}
