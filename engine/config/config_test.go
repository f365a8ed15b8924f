package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsToUnsetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chronos.jsonc")
	doc := `{
		// settle attempts left at zero on purpose, should default
		"clock": {
			"initial_speed": 2.5
		}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.Loop.MaxSettleAttempts != 10 {
		t.Fatalf("MaxSettleAttempts = %d, want default 10", conf.Loop.MaxSettleAttempts)
	}
	if conf.Clock.InitialSpeed != 2.5 {
		t.Fatalf("InitialSpeed = %v, want 2.5", conf.Clock.InitialSpeed)
	}
	if conf.Clock.TickInterval != 50*time.Millisecond {
		t.Fatalf("TickInterval = %v, want default 50ms", conf.Clock.TickInterval)
	}
}

func TestDefaultIsSelfConsistent(t *testing.T) {
	conf := Default()
	if conf.Log == nil {
		t.Fatalf("Default().Log is nil")
	}
	if conf.Loop.MaxSettleAttempts <= 0 {
		t.Fatalf("Default().Loop.MaxSettleAttempts = %d, want > 0", conf.Loop.MaxSettleAttempts)
	}
	loop := conf.NewLoop()
	if loop == nil {
		t.Fatalf("NewLoop() returned nil")
	}
	clk := conf.NewClock()
	if clk == nil {
		t.Fatalf("NewClock() returned nil")
	}
}
