package goSession

import (
	"testing"
	"time"
)

func TestLint_DefaultConfigHasNoHighWarnings(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Lint().AsError(LintHigh); err != nil {
		t.Errorf("default config should not fail AsError(LintHigh): %v", err)
	}
	codes := cfg.Lint().Codes()
	if !containsCode(codes, "audit_disabled") {
		t.Error("expected audit_disabled for the default config")
	}
	if containsCode(codes, "store_key_custom") {
		t.Error("default key must not warn")
	}
}

func TestLint_AuditBlockingIsHigh(t *testing.T) {
	cfg := defaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	ws := cfg.Lint()

	high := ws.BySeverity(LintHigh)
	if len(high) != 1 || high[0].Code != "audit_blocking" {
		t.Fatalf("expected audit_blocking as the only HIGH warning, got %+v", high)
	}
	if err := ws.AsError(LintHigh); err == nil {
		t.Error("expected AsError(LintHigh) to fail")
	}
}

func TestLint_OfflineRestore(t *testing.T) {
	cfg := defaultConfig()
	cfg.Init.KeepCachedOnRemoteError = true
	if !containsCode(cfg.Lint().Codes(), "offline_restore") {
		t.Error("expected offline_restore warning")
	}
}

func TestLint_InitTimeouts(t *testing.T) {
	cfg := defaultConfig()
	cfg.Init.StoreTimeout = 20 * time.Second
	cfg.Init.RemoteTimeout = 20 * time.Second
	if !containsCode(cfg.Lint().Codes(), "init_timeout_long") {
		t.Error("expected init_timeout_long warning")
	}

	cfg = defaultConfig()
	cfg.Init.RemoteTimeout = 100 * time.Millisecond
	if !containsCode(cfg.Lint().Codes(), "init_remote_timeout_short") {
		t.Error("expected init_remote_timeout_short warning")
	}
}

func TestLint_SeverityString(t *testing.T) {
	if LintHigh.String() != "HIGH" || LintWarn.String() != "WARN" || LintInfo.String() != "INFO" {
		t.Error("unexpected severity names")
	}
}

// helpers

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
