// Command chronosd runs a demo event.Loop and clock.Clock, driven either
// interactively through engine/console or by replaying an engine/scenario
// fixture, until an OS signal or the first subsystem error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/haldane-rts/chronos/engine/config"
	"github.com/haldane-rts/chronos/engine/console"
	"github.com/haldane-rts/chronos/engine/curve"
	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
	"github.com/haldane-rts/chronos/engine/scenario"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON-with-comments config file (optional)")
	scenarioPath := flag.String("scenario", "", "path to a scenario YAML fixture to replay on startup (optional)")
	flag.Parse()

	log := slog.Default()

	conf := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Error("chronosd: load config", "err", err)
			os.Exit(1)
		}
		conf = loaded
	}

	loop := conf.NewLoop()
	clk := conf.NewClock()

	demo := curve.NewContinuous(loop, "demo", curve.S(0.0))

	con := console.New(clk, loop, nil, log)
	con.Register("demo", console.ScalarContinuous[float64]{C: demo})

	if *scenarioPath != "" {
		if err := replayScenario(*scenarioPath, loop, demo); err != nil {
			log.Error("chronosd: replay scenario", "err", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := clk.Start(); err != nil {
		log.Error("chronosd: start clock", "err", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		clk.Run(gctx, conf.Clock.TickInterval, loop, nil)
		return nil
	})
	g.Go(func() error {
		con.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("chronosd: subsystem error", "err", err)
		os.Exit(1)
	}
}

func replayScenario(path string, loop *event.Loop, demo *curve.Continuous[curve.Scalar[float64]]) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := scenario.Load(data)
	if err != nil {
		return err
	}
	reg := map[string]console.Curve{"demo": console.ScalarContinuous[float64]{C: demo}}
	for _, scn := range doc.Scenarios {
		if err := scn.Run(reg, func(t fixed.Time) error { return loop.ReachTime(t, nil) }); err != nil {
			return fmt.Errorf("scenario %s: %w", scn.Name, err)
		}
	}
	return nil
}
