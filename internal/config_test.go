package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/tagprogress/internal/progress"
	pkgconfig "github.com/starford/tagprogress/pkg/config"
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

func TestFullConfig_Defaults(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
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

func TestFullConfig_StatsValidated(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Stats.SuspendMaskThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("out-of-range mask threshold should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Collection.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty collection path should fail")
	}
}

func TestLoadYAML_PartialStatsKeepDefaults(t *testing.T) {
	t.Setenv("TAGPROGRESS_TEST_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  http:
    port: 9090
collection:
  path: /data/collection.anki2
state:
  path: /data/user_state.json
auth:
  mode: token
  token: ${TAGPROGRESS_TEST_TOKEN}
stats:
  overlap_threshold: 20
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Token != "s3cret" {
		t.Errorf("token = %q, want env expansion", cfg.Auth.Token)
	}
	if cfg.App.HTTP.Port != 9090 || !cfg.Collection.ReadOnly {
		t.Errorf("app/collection = %+v / %+v", cfg.App.HTTP, cfg.Collection)
	}
	if cfg.Stats.OverlapThreshold != 0.2 {
		t.Errorf("overlap = %v, want percent normalized to 0.2", cfg.Stats.OverlapThreshold)
	}
	if cfg.Stats.MatureInterval != progress.DefaultMatureInterval || cfg.Stats.Mode != progress.ModeItems {
		t.Errorf("stats defaults lost: %+v", cfg.Stats)
	}
}
