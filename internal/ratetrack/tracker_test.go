package ratetrack

import (
	"sync"
	"testing"
	"time"
)

func TestRecordAndCountWithinWindow(t *testing.T) {
	tr := New()
	base := time.Unix(1000, 0)

	for i := 1; i <= 5; i++ {
		got := tr.RecordAndCount(1, 2, base.Add(time.Duration(i)*100*time.Millisecond), 5*time.Second)
		if got != i {
			t.Fatalf("count after %d records = %d, want %d", i, got, i)
		}
	}
}

func TestOldEntriesFallOut(t *testing.T) {
	tr := New()
	base := time.Unix(1000, 0)

	// Three messages at t=0, then one at t=6s with a 5s window: only the
	// latest should count.
	tr.RecordAndCount(1, 2, base, 5*time.Second)
	tr.RecordAndCount(1, 2, base, 5*time.Second)
	tr.RecordAndCount(1, 2, base, 5*time.Second)

	got := tr.RecordAndCount(1, 2, base.Add(6*time.Second), 5*time.Second)
	if got != 1 {
		t.Errorf("count at t=6s = %d, want 1", got)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	tr := New()
	now := time.Unix(1000, 0)

	tr.RecordAndCount(1, 2, now, time.Minute)
	tr.RecordAndCount(1, 2, now, time.Minute)
	got := tr.RecordAndCount(1, 3, now, time.Minute)
	if got != 1 {
		t.Errorf("other user count = %d, want 1", got)
	}
	got = tr.RecordAndCount(9, 2, now, time.Minute)
	if got != 1 {
		t.Errorf("other guild count = %d, want 1", got)
	}
}

func TestSweepEvictsIdleKeys(t *testing.T) {
	tr := New()
	base := time.Unix(1000, 0)

	tr.RecordAndCount(1, 2, base, 5*time.Second)
	tr.RecordAndCount(3, 4, base.Add(50*time.Second), 5*time.Second)

	if got := tr.Len(); got != 2 {
		t.Fatalf("tracked keys = %d, want 2", got)
	}

	// 70s later the first key has been idle past the horizon, the second
	// has not.
	tr.Sweep(base.Add(70 * time.Second))

	if got := tr.Len(); got != 1 {
		t.Errorf("tracked keys after sweep = %d, want 1", got)
	}
}

func TestConcurrentRecordsNoLostUpdates(t *testing.T) {
	tr := New()
	now := time.Now()

	const (
		goroutines = 8
		perG       = 100
	)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				tr.RecordAndCount(1, 2, now, time.Hour)
			}
		}()
	}
	wg.Wait()

	got := tr.RecordAndCount(1, 2, now, time.Hour)
	if got != goroutines*perG+1 {
		t.Errorf("final count = %d, want %d", got, goroutines*perG+1)
	}
}
