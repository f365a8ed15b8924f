package ident

import "testing"

func TestNextDistinctForSameName(t *testing.T) {
	a := Next("eA")
	b := Next("eA")
	if a == b {
		t.Fatalf("Next(\"eA\") returned the same id twice: %d", a)
	}
}

func TestEventHashDeterministic(t *testing.T) {
	a := EventHash(1, 2)
	b := EventHash(1, 2)
	c := EventHash(2, 1)
	if a != b {
		t.Fatalf("EventHash not deterministic: %d != %d", a, b)
	}
	if a == c {
		t.Fatalf("EventHash should distinguish argument order")
	}
}
