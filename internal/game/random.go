package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gungi-online/gungi/pkg/core"
)

// lockedRand makes a Randomizer safe for games running furigoma concurrently.
type lockedRand struct {
	mu  sync.Mutex
	rng core.Randomizer
}

func newLockedRand(rng core.Randomizer) *lockedRand {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &lockedRand{rng: rng}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}
