package scenario

import (
	"os"
	"testing"

	"github.com/haldane-rts/chronos/engine/console"
	"github.com/haldane-rts/chronos/engine/curve"
	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
)

func TestLoadParsesBundledFixtures(t *testing.T) {
	data, err := os.ReadFile("testdata/scenarios.yaml")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Scenarios) != 2 {
		t.Fatalf("len(Scenarios) = %d, want 2", len(doc.Scenarios))
	}
	if doc.Scenarios[0].Name != "continuous-sync" {
		t.Fatalf("Scenarios[0].Name = %q, want continuous-sync", doc.Scenarios[0].Name)
	}
}

func TestRunReplaysContinuousSyncScenario(t *testing.T) {
	data, err := os.ReadFile("testdata/scenarios.yaml")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	loop := event.NewLoop(nil)
	c1 := curve.NewContinuous(loop, "c1", curve.S(0.0))
	c2 := curve.NewContinuous(loop, "c2", curve.S(0.0))

	reg := map[string]console.Curve{
		"c1": console.ScalarContinuous[float64]{C: c1},
		"c2": console.ScalarContinuous[float64]{C: c2},
	}

	advance := func(t fixed.Time) error { return nil }

	scn := doc.Scenarios[0]
	if err := scn.Run(reg, advance); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, sec := range []float64{5, 7, 10} {
		tm := fixed.FromFloat(sec)
		if got, want := c2.Get(tm), c1.Get(tm); got != want {
			t.Fatalf("c2.Get(%v) = %v, want %v (synced from c1)", sec, got, want)
		}
	}
}
