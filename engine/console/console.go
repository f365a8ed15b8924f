// Package console provides an interactive command source for driving a
// running clock.Clock and event.Loop by hand, adapted from the teacher's
// own command-line console.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"github.com/haldane-rts/chronos/engine/clock"
	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
)

const (
	defaultPromptPrefix = "chronos> "
	maxHistoryEntries   = 128
)

// Curve is the minimal string-keyed interface a curve must expose to be
// addressable from the console's set/get commands. Callers register
// concrete curves under a name with Register; ScalarContinuous and ScalarDiscrete
// in this package adapt the common curve.Continuous/curve.Discrete shapes.
type Curve interface {
	Get(t fixed.Time) string
	Set(t fixed.Time, raw string) error
	// Sync copies other's keyframes at or after start into this curve, per
	// curve.Continuous.Sync/curve.Discrete.Sync. other must wrap the same
	// concrete curve type; a mismatch is reported as an error rather than
	// a panic, since both sides arrive here through the same untyped
	// registry.
	Sync(other Curve, start fixed.Time) error
}

// Console reads commands from an io.Reader (defaulting to os.Stdin) and
// executes them against a clock.Clock, an event.Loop, and a registry of
// named curves.
type Console struct {
	clk    *clock.Clock
	loop   *event.Loop
	state  any
	log    *slog.Logger
	reader io.Reader

	curves  map[string]Curve
	history []string
}

// New returns a Console bound to clk and loop. state is threaded through to
// every loop.ReachTime call the console's advance command makes.
func New(clk *clock.Clock, loop *event.Loop, state any, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{
		clk:    clk,
		loop:   loop,
		state:  state,
		log:    log,
		reader: os.Stdin,
		curves: make(map[string]Curve),
	}
}

// WithReader sets a custom reader for the console input, so tests can drive
// the console without relying on os.Stdin.
func (c *Console) WithReader(r io.Reader) *Console {
	if r != nil {
		c.reader = r
	}
	return c
}

// Register binds name to curve, making it addressable from the set and get
// commands.
func (c *Console) Register(name string, curve Curve) {
	c.curves[name] = curve
}

// Run starts consuming commands. It blocks until ctx is cancelled or the
// underlying reader reaches EOF.
func (c *Console) Run(ctx context.Context) {
	if c.reader != os.Stdin {
		c.runScanner(ctx)
		return
	}
	c.runInteractive(ctx)
}

func (c *Console) runScanner(ctx context.Context) {
	scanner := bufio.NewScanner(c.reader)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				c.log.Error("console input error", "err", err)
			}
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.execute(line)
	}
}

func (c *Console) runInteractive(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := prompt.Input(defaultPromptPrefix, c.complete,
			prompt.OptionTitle("Chronos Console"),
			prompt.OptionHistory(c.history),
			prompt.OptionPrefix(defaultPromptPrefix),
			prompt.OptionCompletionOnDown(),
			prompt.OptionMaxSuggestion(12),
		)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.execute(line)
	}
}

var commandNames = []string{"advance", "status", "set", "get", "sync", "start", "pause", "resume", "stop", "speed"}

func (c *Console) complete(doc prompt.Document) []prompt.Suggest {
	fields := strings.Fields(doc.TextBeforeCursor())
	hasTrailingSpace := strings.HasSuffix(doc.TextBeforeCursor(), " ")
	word := doc.GetWordBeforeCursor()

	if len(fields) == 0 || (len(fields) == 1 && !hasTrailingSpace) {
		return prompt.FilterHasPrefix(commandSuggestions(), word, true)
	}

	switch fields[0] {
	case "set", "get":
		argIndex := len(fields) - 1
		if hasTrailingSpace {
			argIndex = len(fields)
		}
		if argIndex == 1 {
			return prompt.FilterHasPrefix(c.curveSuggestions(), word, true)
		}
	case "sync":
		argIndex := len(fields) - 1
		if hasTrailingSpace {
			argIndex = len(fields)
		}
		if argIndex == 1 || argIndex == 2 {
			return prompt.FilterHasPrefix(c.curveSuggestions(), word, true)
		}
	}
	return nil
}

func commandSuggestions() []prompt.Suggest {
	out := make([]prompt.Suggest, len(commandNames))
	for i, name := range commandNames {
		out[i] = prompt.Suggest{Text: name}
	}
	return out
}

func (c *Console) curveSuggestions() []prompt.Suggest {
	names := make([]string, 0, len(c.curves))
	for name := range c.curves {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]prompt.Suggest, len(names))
	for i, name := range names {
		out[i] = prompt.Suggest{Text: name}
	}
	return out
}

func (c *Console) execute(line string) {
	c.history = append(c.history, line)
	if len(c.history) > maxHistoryEntries {
		c.history = c.history[len(c.history)-maxHistoryEntries:]
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	var err error
	switch fields[0] {
	case "advance":
		err = c.cmdAdvance(fields[1:])
	case "status":
		c.cmdStatus()
	case "set":
		err = c.cmdSet(fields[1:])
	case "get":
		err = c.cmdGet(fields[1:])
	case "sync":
		err = c.cmdSync(fields[1:])
	case "start":
		err = c.clk.Start()
	case "pause":
		err = c.clk.Pause()
	case "resume":
		err = c.clk.Resume()
	case "stop":
		err = c.clk.Stop()
	case "speed":
		err = c.cmdSpeed(fields[1:])
	default:
		err = fmt.Errorf("unknown command %q", fields[0])
	}
	if err != nil {
		c.log.Error("console: command failed", "line", line, "err", err)
	}
}

func (c *Console) cmdAdvance(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: advance <seconds>")
	}
	seconds, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("parse seconds: %w", err)
	}
	target := c.clk.GetTime().Add(fixed.FromFloat(seconds))
	if err := c.loop.ReachTime(target, c.state); err != nil {
		return fmt.Errorf("reach time: %w", err)
	}
	c.log.Info("console: advanced", "time", target)
	return nil
}

func (c *Console) cmdStatus() {
	c.log.Info("console: status",
		"state", c.clk.State(),
		"time", c.clk.GetTime(),
		"speed", c.clk.Speed(),
		"tps", c.clk.TPS(),
	)
}

func (c *Console) cmdSet(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: set <curve> <t> <value>")
	}
	curve, ok := c.curves[args[0]]
	if !ok {
		return fmt.Errorf("unknown curve %q", args[0])
	}
	seconds, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("parse time: %w", err)
	}
	if err := curve.Set(fixed.FromFloat(seconds), args[2]); err != nil {
		return fmt.Errorf("set %s: %w", args[0], err)
	}
	return nil
}

func (c *Console) cmdGet(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: get <curve> <t>")
	}
	curve, ok := c.curves[args[0]]
	if !ok {
		return fmt.Errorf("unknown curve %q", args[0])
	}
	seconds, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("parse time: %w", err)
	}
	c.log.Info("console: get", "curve", args[0], "t", seconds, "value", curve.Get(fixed.FromFloat(seconds)))
	return nil
}

func (c *Console) cmdSync(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: sync <dst-curve> <src-curve> <start>")
	}
	dst, ok := c.curves[args[0]]
	if !ok {
		return fmt.Errorf("unknown curve %q", args[0])
	}
	src, ok := c.curves[args[1]]
	if !ok {
		return fmt.Errorf("unknown curve %q", args[1])
	}
	seconds, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("parse start: %w", err)
	}
	if err := dst.Sync(src, fixed.FromFloat(seconds)); err != nil {
		return fmt.Errorf("sync %s from %s: %w", args[0], args[1], err)
	}
	return nil
}

func (c *Console) cmdSpeed(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: speed <factor>")
	}
	speed, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("parse speed: %w", err)
	}
	c.clk.SetSpeed(speed)
	return nil
}
