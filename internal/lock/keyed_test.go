package lock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedSerializesSameKey(t *testing.T) {
	k := NewKeyed()
	const workers = 50

	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			k.Lock("member:1")
			defer k.Unlock("member:1")
			counter++ // data race here would trip -race
		}()
	}
	wg.Wait()
	assert.Equal(t, workers, counter)
}

func TestKeyedIndependentKeysDoNotContend(t *testing.T) {
	k := NewKeyed()
	k.Lock("session:1")
	defer k.Unlock("session:1")

	done := make(chan struct{})
	go func() {
		k.Lock("session:2")
		k.Unlock("session:2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedTableShrinksWhenIdle(t *testing.T) {
	k := NewKeyed()
	k.Lock("member:9")
	k.Unlock("member:9")

	k.mu.Lock()
	defer k.mu.Unlock()
	assert.Empty(t, k.locks)
}

func TestKeyedUnlockUnheldPanics(t *testing.T) {
	k := NewKeyed()
	assert.Panics(t, func() { k.Unlock("member:404") })
}
