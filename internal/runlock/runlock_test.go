package runlock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	lock := New(path)

	if err := lock.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	// Released lock can be re-acquired.
	if err := lock.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("re-Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestReleaseWithoutAcquire(t *testing.T) {
	lock := New(filepath.Join(t.TempDir(), "test.lock"))
	if err := lock.Release(); err != nil {
		t.Fatalf("Release on unheld lock: %v", err)
	}
}

func TestAcquireTimesOutWhenHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	holder := New(path)
	if err := holder.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("holder Acquire: %v", err)
	}
	defer holder.Release()

	contender := New(path)
	start := time.Now()
	err := contender.Acquire(context.Background(), 100*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("contender Acquire error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("contender waited %v, expected prompt timeout", elapsed)
	}
}

func TestSecondAcquirerBlocksUntilRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	holder := New(path)
	if err := holder.Acquire(context.Background(), 0); err != nil {
		t.Fatalf("holder Acquire: %v", err)
	}

	acquired := make(chan error, 1)
	contender := New(path)
	go func() {
		acquired <- contender.Acquire(context.Background(), 0)
	}()

	select {
	case err := <-acquired:
		t.Fatalf("contender acquired while lock was held (err=%v)", err)
	case <-time.After(200 * time.Millisecond):
	}

	if err := holder.Release(); err != nil {
		t.Fatalf("holder Release: %v", err)
	}

	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("contender Acquire after release: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("contender never acquired after release")
	}
	if err := contender.Release(); err != nil {
		t.Fatalf("contender Release: %v", err)
	}
}

func TestAcquireHonorsContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	holder := New(path)
	if err := holder.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("holder Acquire: %v", err)
	}
	defer holder.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	contender := New(path)
	if err := contender.Acquire(ctx, 0); err == nil {
		t.Fatal("Acquire succeeded despite held lock and canceled context")
	}
}
