package services

import (
	"sync"
	"testing"
	"time"

	"tirelire/internal/testutil"
)

func TestLockTable(t *testing.T) {
	t.Run("reacquire_after_release", func(t *testing.T) {
		locks := newLockTable()

		release, err := locks.acquire("a", time.Second)
		testutil.AssertNoError(t, err)
		release()

		release, err = locks.acquire("a", time.Second)
		testutil.AssertNoError(t, err)
		release()
	})

	t.Run("shared_across_service_instances", func(t *testing.T) {
		db := setup(t)
		first := NewWalletService(db).(*walletService)
		second := NewWalletService(db).(*walletService)
		if first.locks != second.locks {
			t.Fatal("expected wallet services to share one lock table")
		}

		release, err := first.locks.acquire("wallet:shared", 20*time.Millisecond)
		testutil.AssertNoError(t, err)
		defer release()

		_, err = second.locks.acquire("wallet:shared", 20*time.Millisecond)
		testutil.AssertAppError(t, err, "BUSY")
	})

	t.Run("busy_when_held", func(t *testing.T) {
		locks := newLockTable()

		release, err := locks.acquire("a", time.Second)
		testutil.AssertNoError(t, err)
		defer release()

		_, err = locks.acquire("a", 10*time.Millisecond)
		testutil.AssertAppError(t, err, "BUSY")
	})

	t.Run("independent_keys_do_not_block", func(t *testing.T) {
		locks := newLockTable()

		releaseA, err := locks.acquire("a", time.Second)
		testutil.AssertNoError(t, err)
		defer releaseA()

		releaseB, err := locks.acquire("b", 10*time.Millisecond)
		testutil.AssertNoError(t, err)
		releaseB()
	})

	t.Run("waiter_proceeds_once_released", func(t *testing.T) {
		locks := newLockTable()

		release, err := locks.acquire("a", time.Second)
		testutil.AssertNoError(t, err)

		done := make(chan error, 1)
		go func() {
			r, err := locks.acquire("a", 2*time.Second)
			if err == nil {
				r()
			}
			done <- err
		}()

		time.Sleep(20 * time.Millisecond)
		release()

		testutil.AssertNoError(t, <-done)
	})

	t.Run("mutual_exclusion_under_contention", func(t *testing.T) {
		locks := newLockTable()

		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := locks.acquire("counter", 5*time.Second)
				if err != nil {
					t.Error(err)
					return
				}
				defer release()
				counter++
			}()
		}
		wg.Wait()

		if counter != 20 {
			t.Errorf("expected 20 increments, got %d", counter)
		}
	})
}

func TestAcquireAll(t *testing.T) {
	t.Run("opposing_orders_do_not_deadlock", func(t *testing.T) {
		locks := newLockTable()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			keys := []string{"a", "b"}
			if i%2 == 1 {
				keys = []string{"b", "a"}
			}
			wg.Add(1)
			go func(keys []string) {
				defer wg.Done()
				release, err := locks.acquireAll(keys, 5*time.Second)
				if err != nil {
					t.Error(err)
					return
				}
				release()
			}(keys)
		}
		wg.Wait()
	})

	t.Run("partial_failure_rolls_back", func(t *testing.T) {
		locks := newLockTable()

		releaseB, err := locks.acquire("b", time.Second)
		testutil.AssertNoError(t, err)

		_, err = locks.acquireAll([]string{"a", "b"}, 10*time.Millisecond)
		testutil.AssertAppError(t, err, "BUSY")

		// "a" must have been released on the failed attempt.
		releaseA, err := locks.acquire("a", 10*time.Millisecond)
		testutil.AssertNoError(t, err)
		releaseA()
		releaseB()
	})
}
