package fixed

import (
	"testing"
	"time"
)

func TestFromFloatRoundTrip(t *testing.T) {
	got := FromFloat(10.5).Float()
	if got != 10.5 {
		t.Fatalf("FromFloat(10.5).Float() = %v, want 10.5", got)
	}
}

func TestOrdering(t *testing.T) {
	if !(Min < Zero && Zero < Max) {
		t.Fatalf("expected Min < Zero < Max")
	}
	a, b := FromFloat(1), FromFloat(2)
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Fatalf("Cmp results unexpected: %d %d %d", a.Cmp(b), b.Cmp(a), a.Cmp(a))
	}
}

func TestMulScalesDelta(t *testing.T) {
	delta := FromFloat(20)
	half := delta.Mul(0.5)
	if half.Float() != 10 {
		t.Fatalf("delta.Mul(0.5) = %v, want 10", half.Float())
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := 250 * time.Millisecond
	got := FromDuration(d).Duration()
	if got != d {
		t.Fatalf("FromDuration(%v).Duration() = %v", d, got)
	}
}

func TestMod(t *testing.T) {
	interval := FromFloat(10)
	cases := []struct{ t, want float64 }{
		{-5, 5},
		{0, 0},
		{15, 5},
		{25, 5},
	}
	for _, c := range cases {
		got := Mod(FromFloat(c.t), interval).Float()
		if got != c.want {
			t.Fatalf("Mod(%v, 10) = %v, want %v", c.t, got, c.want)
		}
	}
}

func TestModZeroInterval(t *testing.T) {
	if Mod(FromFloat(5), Zero) != Zero {
		t.Fatalf("Mod by zero interval should return Zero")
	}
}

func TestString(t *testing.T) {
	if Min.String() != "-inf" || Max.String() != "+inf" {
		t.Fatalf("min/max should render as signed infinities")
	}
}
