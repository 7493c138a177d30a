package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestSchedulingConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if cfg.Scheduling.ConflictPolicy != ConflictPolicyWarn {
		t.Errorf("conflict policy = %q", cfg.Scheduling.ConflictPolicy)
	}
}

func TestSchedulingConfig_EmptyPolicyDefaultsWarn(t *testing.T) {
	cfg := SchedulingConfig{DefaultDurationMinutes: 30, MaxDurationMinutes: 120}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.ConflictPolicy != ConflictPolicyWarn {
		t.Errorf("policy = %q, want %q", cfg.ConflictPolicy, ConflictPolicyWarn)
	}
}

func TestSchedulingConfig_InvalidPolicy(t *testing.T) {
	cfg := SchedulingConfig{DefaultDurationMinutes: 30, MaxDurationMinutes: 120, ConflictPolicy: "explode"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid policy should fail validation")
	}
}

func TestSchedulingConfig_DefaultExceedsMax(t *testing.T) {
	cfg := SchedulingConfig{DefaultDurationMinutes: 500, MaxDurationMinutes: 120}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("default above max should fail")
	}
	if !strings.Contains(err.Error(), "exceeds max") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLLMConfig_DisabledWithoutKey(t *testing.T) {
	cfg := LLMConfig{}
	if cfg.Enabled() {
		t.Error("empty key should disable LLM")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled LLM should validate: %v", err)
	}
}

func TestLLMConfig_EnabledRequiresURLAndModel(t *testing.T) {
	cfg := LLMConfig{APIKey: "k"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled LLM without url/model should fail")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
