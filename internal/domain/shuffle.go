package domain

import (
	"math/rand"
	"sync"
)

// Rand is the randomness the sampler needs. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// LockedRand makes a *rand.Rand safe for concurrent use.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Shuffle permutes items in place: for i from len down to 2, swap
// element i-1 with a uniformly chosen element in [0, i-1].
func Shuffle(items []string, r Rand) {
	for i := len(items); i >= 2; i-- {
		j := r.Intn(i)
		items[i-1], items[j] = items[j], items[i-1]
	}
}

// Sample shuffles a copy of items and returns at most max of them.
// items itself is left untouched.
func Sample(items []string, max int, r Rand) []string {
	cp := make([]string, len(items))
	copy(cp, items)
	Shuffle(cp, r)
	if max < len(cp) {
		cp = cp[:max]
	}
	return cp
}
