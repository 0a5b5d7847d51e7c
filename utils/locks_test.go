package utils

import (
	"sync"
	"testing"
)

func TestEntityLockerSerializesPerKey(t *testing.T) {
	locker := NewEntityLocker()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("book", 42)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("counter = %d, want 100", counter)
	}
}

func TestEntityLockerIndependentKeys(t *testing.T) {
	locker := NewEntityLocker()

	unlockA := locker.Lock("book", 1)
	defer unlockA()

	// A different id or kind must not block
	done := make(chan struct{})
	go func() {
		unlockB := locker.Lock("book", 2)
		unlockB()
		unlockC := locker.Lock("chat", 1)
		unlockC()
		close(done)
	}()
	<-done
}
