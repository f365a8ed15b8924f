// Package config loads tuning for an event.Loop and clock.Clock from a
// JSON-with-comments document, the way the teacher's own server config
// loads from JSON.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/df-mc/jsonc"

	"github.com/haldane-rts/chronos/engine/clock"
	"github.com/haldane-rts/chronos/engine/event"
)

// Config holds the tunables this package can apply to a fresh Loop and
// Clock. Zero-value fields are filled in by Default.
type Config struct {
	// Log is used for loading diagnostics. If nil, Log is set to
	// slog.Default().
	Log *slog.Logger `json:"-"`

	Loop struct {
		// MaxSettleAttempts caps how many rounds event.Loop.ReachTime tries
		// before reporting non-convergence.
		MaxSettleAttempts int `json:"max_settle_attempts"`
	} `json:"loop"`

	Clock struct {
		// TickInterval is the wall-clock period between clock.Clock.Run
		// ticks.
		TickInterval time.Duration `json:"tick_interval"`
		// MaxTickTime clamps a single UpdateTime step, the same way
		// clock.DefaultMaxTickTime does.
		MaxTickTime time.Duration `json:"max_tick_time"`
		// InitialSpeed is the dilation factor the clock starts at.
		InitialSpeed float64 `json:"initial_speed"`
	} `json:"clock"`
}

// Default returns a Config with sane defaults filled in, mirroring the
// teacher's Config.New() zero-value-defaulting convention.
func Default() Config {
	var c Config
	c.Log = slog.Default()
	c.Loop.MaxSettleAttempts = 10
	c.Clock.TickInterval = 50 * time.Millisecond
	c.Clock.MaxTickTime = clock.DefaultMaxTickTime
	c.Clock.InitialSpeed = 1.0
	return c
}

// Load reads a JSON-with-comments document from path and returns a Config
// with any unset fields defaulted. Comments and trailing commas are
// stripped via jsonc before unmarshalling, since encoding/json itself
// accepts neither.
func Load(path string) (Config, error) {
	conf := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return conf, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(raw), &conf); err != nil {
		return conf, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Loop.MaxSettleAttempts <= 0 {
		conf.Loop.MaxSettleAttempts = 10
	}
	if conf.Clock.TickInterval <= 0 {
		conf.Clock.TickInterval = 50 * time.Millisecond
	}
	if conf.Clock.MaxTickTime <= 0 {
		conf.Clock.MaxTickTime = clock.DefaultMaxTickTime
	}
	if conf.Clock.InitialSpeed == 0 {
		conf.Clock.InitialSpeed = 1.0
	}
	return conf, nil
}

// NewLoop returns an event.Loop tuned per c.Loop.
func (c Config) NewLoop() *event.Loop {
	l := event.NewLoop(c.Log)
	l.SetMaxSettleAttempts(c.Loop.MaxSettleAttempts)
	return l
}

// NewClock returns a clock.Clock tuned per c.Clock.
func (c Config) NewClock() *clock.Clock {
	ck := clock.New(c.Log)
	ck.SetSpeed(c.Clock.InitialSpeed)
	ck.SetMaxTickTime(c.Clock.MaxTickTime)
	return ck
}
