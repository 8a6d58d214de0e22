package domain

import (
	"math/rand"
	"reflect"
	"testing"
)

// fixedRand always returns the same index, clamped to the range.
type fixedRand int

func (f fixedRand) Intn(n int) int {
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}

// topRand returns n-1, which makes every swap a no-op.
type topRand struct{}

func (topRand) Intn(n int) int { return n - 1 }

func TestShuffle_Deterministic(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	Shuffle(items, fixedRand(0))
	want := []string{"b", "c", "d", "e", "a"}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("want %v, got %v", want, items)
	}

	items = []string{"a", "b", "c"}
	Shuffle(items, topRand{})
	if !reflect.DeepEqual(items, []string{"a", "b", "c"}) {
		t.Fatalf("identity swaps changed order: %v", items)
	}
}

func TestSample_DoesNotMutateInput(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e"}
	got := Sample(in, 4, fixedRand(0))
	if !reflect.DeepEqual(got, []string{"b", "c", "d", "e"}) {
		t.Fatalf("unexpected sample %v", got)
	}
	if !reflect.DeepEqual(in, []string{"a", "b", "c", "d", "e"}) {
		t.Fatalf("input mutated: %v", in)
	}
	if got := Sample([]string{"x", "y"}, 4, fixedRand(0)); len(got) != 2 {
		t.Fatalf("sample of 2 with max 4 should keep 2, got %v", got)
	}
}

func TestSample_NoRepeats(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	pop := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}
	for i := 0; i < 1000; i++ {
		got := Sample(pop, 4, r)
		if len(got) != 4 {
			t.Fatalf("want 4 items, got %d", len(got))
		}
		seen := map[string]bool{}
		for _, p := range got {
			if seen[p] {
				t.Fatalf("repeated element %q in %v", p, got)
			}
			seen[p] = true
		}
	}
}

func TestSample_RoughlyUniform(t *testing.T) {
	const trials = 20000
	r := NewLockedRand(7)
	pop := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		for _, p := range Sample(pop, 4, r) {
			counts[p]++
		}
	}
	// Each element is picked with probability 4/8.
	want := trials / 2
	for _, p := range pop {
		if d := counts[p] - want; d < -500 || d > 500 {
			t.Errorf("%s picked %d times, want about %d", p, counts[p], want)
		}
	}
}
