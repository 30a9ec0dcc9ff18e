// Package ratetrack keeps per-(guild,user) sliding windows of message
// timestamps for flood detection. State lives only in process memory and
// resets on restart.
package ratetrack

import (
	"context"
	"sync"
	"time"

	"github.com/TonsaiX/XerlBot/pkg/util"
)

const (
	shardCount = 16
	shardMask  = shardCount - 1

	// idleHorizon bounds how long an inactive window is retained. The
	// maximum configurable detection window is 60s, so anything older can
	// never count again.
	idleHorizon = 60 * time.Second

	sweepInterval = 60 * time.Second
)

type key struct {
	guildID uint64
	userID  uint64
}

type window struct {
	stamps []time.Time
}

type shard struct {
	mu      sync.Mutex
	windows map[key]*window
}

// Tracker is a sharded keyed store of message timestamp windows. It is the
// only mutable state shared between concurrently handled messages and owns
// its own synchronization.
type Tracker struct {
	shards [shardCount]*shard
}

func New() *Tracker {
	t := &Tracker{}
	for i := range t.shards {
		t.shards[i] = &shard{windows: make(map[key]*window)}
	}
	return t
}

func (t *Tracker) shardFor(k key) *shard {
	return t.shards[util.HashIndex64(k.guildID^util.HashU64(k.userID), shardMask)]
}

// RecordAndCount appends now to the window for (guildID, userID), drops
// entries older than windowDur, and returns the resulting count including
// the entry just added.
func (t *Tracker) RecordAndCount(guildID, userID uint64, now time.Time, windowDur time.Duration) int {
	k := key{guildID: guildID, userID: userID}
	s := t.shardFor(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[k]
	if !ok {
		w = &window{}
		s.windows[k] = w
	}

	cutoff := now.Add(-windowDur)
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) || ts.Equal(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = append(kept, now)

	return len(w.stamps)
}

// Sweep prunes all windows to the idle horizon and evicts keys left empty,
// bounding memory to recently active chatters.
func (t *Tracker) Sweep(now time.Time) {
	cutoff := now.Add(-idleHorizon)
	for _, s := range t.shards {
		s.mu.Lock()
		for k, w := range s.windows {
			kept := w.stamps[:0]
			for _, ts := range w.stamps {
				if ts.After(cutoff) {
					kept = append(kept, ts)
				}
			}
			w.stamps = kept
			if len(w.stamps) == 0 {
				delete(s.windows, k)
			}
		}
		s.mu.Unlock()
	}
}

// Run sweeps periodically until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Sweep(now)
		}
	}
}

// Len reports the number of tracked keys across all shards.
func (t *Tracker) Len() int {
	n := 0
	for _, s := range t.shards {
		s.mu.Lock()
		n += len(s.windows)
		s.mu.Unlock()
	}
	return n
}
