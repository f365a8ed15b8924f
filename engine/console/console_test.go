package console

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/haldane-rts/chronos/engine/clock"
	"github.com/haldane-rts/chronos/engine/curve"
	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
)

func TestConsoleSetAndGetDriveRegisteredCurve(t *testing.T) {
	loop := event.NewLoop(nil)
	clk := clock.New(nil)
	c := curve.NewContinuous(loop, "demo", curve.S(0.0))

	con := New(clk, loop, nil, nil)
	con.Register("demo", ScalarContinuous[float64]{C: c})
	con.WithReader(strings.NewReader("set demo 0 10\nadvance 5\nget demo 5\n"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	con.Run(ctx)

	if got := c.Get(fixed.FromFloat(0)); got.V != 10 {
		t.Fatalf("c.Get(0).V = %v, want 10", got.V)
	}
}

func TestConsoleRejectsUnknownCurve(t *testing.T) {
	loop := event.NewLoop(nil)
	clk := clock.New(nil)
	con := New(clk, loop, nil, nil)
	con.WithReader(strings.NewReader("set nope 0 1\n"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	con.Run(ctx)
}
