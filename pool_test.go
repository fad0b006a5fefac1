package mdview

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

// Browsers are launched lazily, so none of these tests start Chrome.

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{name: "explicit takes priority", workers: 4, want: 4},
		{name: "explicit can exceed max", workers: 20, want: 20},
		{name: "zero uses auto calculation", workers: 0, want: min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize)},
		{name: "negative uses auto calculation", workers: -3, want: min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolvePoolSize(tt.workers); got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

func TestBrowserPool_AcquireRelease(t *testing.T) {
	t.Parallel()

	pool := NewBrowserPool(2, time.Second)
	t.Cleanup(func() { _ = pool.Close() })

	ctx := context.Background()
	a, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	b, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if a == b {
		t.Fatal("Acquire() returned the same browser twice")
	}

	pool.Release(a)
	c, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if c != a {
		t.Error("Acquire() did not reuse the released browser")
	}
}

func TestBrowserPool_AcquireBlocks(t *testing.T) {
	t.Parallel()

	pool := NewBrowserPool(1, time.Second)
	t.Cleanup(func() { _ = pool.Close() })

	held, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	t.Run("context expires", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if _, err := pool.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Acquire() error = %v, want %v", err, context.DeadlineExceeded)
		}
	})

	t.Run("release wakes waiter", func(t *testing.T) {
		got := make(chan *Browser, 1)
		go func() {
			b, _ := pool.Acquire(context.Background())
			got <- b
		}()

		time.Sleep(10 * time.Millisecond)
		pool.Release(held)

		select {
		case b := <-got:
			if b != held {
				t.Error("waiter got a different browser")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("waiter never woke up")
		}
	})
}

func TestBrowserPool_Close(t *testing.T) {
	t.Parallel()

	pool := NewBrowserPool(1, time.Second)
	held, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	waiting := make(chan error, 1)
	go func() {
		_, err := pool.Acquire(context.Background())
		waiting <- err
	}()
	time.Sleep(10 * time.Millisecond)

	if err := pool.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case err := <-waiting:
		if !errors.Is(err, ErrPoolClosed) {
			t.Errorf("waiter error = %v, want %v", err, ErrPoolClosed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close() did not wake the waiter")
	}

	pool.Release(held)
	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire() after Close error = %v, want %v", err, ErrPoolClosed)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNewBrowserPool_Size(t *testing.T) {
	t.Parallel()

	if got := NewBrowserPool(0, 0).Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
	if got := NewBrowserPool(3, 0).Size(); got != 3 {
		t.Errorf("Size() = %d, want 3", got)
	}
}

func TestBrowser_ClosedRefusesConnect(t *testing.T) {
	t.Parallel()

	b := NewBrowser(0)
	if b.Timeout() != DefaultBrowserTimeout {
		t.Errorf("Timeout() = %v, want %v", b.Timeout(), DefaultBrowserTimeout)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Connect(); !errors.Is(err, ErrBrowserConnect) {
		t.Errorf("Connect() after Close error = %v, want %v", err, ErrBrowserConnect)
	}
}
