package goSession

import (
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks configuration warnings.
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is one finding of [Config.Lint]. Code is stable across releases.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns an error listing warnings at or above min, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

const (
	lintInitBudget      = 30 * time.Second
	lintMinRemoteWindow = 500 * time.Millisecond
)

// Lint reports settings that validate but are likely mistakes. It never fails; pair it
// with AsError to enforce a policy.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.Audit.Enabled && !c.Audit.DropIfFull {
		add("audit_blocking", LintHigh,
			"Audit DropIfFull=false lets a slow sink stall state transitions")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "session lifecycle transitions are not audited")
	}
	if c.Init.KeepCachedOnRemoteError {
		add("offline_restore", LintWarn,
			"a cached session survives remote failures and may outlive a remote revocation")
	}
	if !c.Notifications.RejectExpired {
		add("notifications_trust_expired", LintInfo,
			"pushed sessions are accepted without a local expiry check")
	}
	if c.Init.StoreTimeout+c.Init.RemoteTimeout > lintInitBudget {
		add("init_timeout_long", LintWarn,
			"initialization may keep observers loading for more than 30s")
	}
	if c.Init.RemoteTimeout > 0 && c.Init.RemoteTimeout < lintMinRemoteWindow {
		add("init_remote_timeout_short", LintWarn,
			"a remote timeout below 500ms clears valid caches on slow networks")
	}
	if c.Store.Key != DefaultStoreKey {
		add("store_key_custom", LintInfo,
			"a non-default store key orphans sessions cached under the previous key")
	}

	return ws
}
