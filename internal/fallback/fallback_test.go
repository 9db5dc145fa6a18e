package fallback

import (
	"context"
	"errors"
	"testing"
)

func TestFirstReturnsFirstSuccess(t *testing.T) {
	var tried []string
	mk := func(name string, err error) Strategy[string] {
		return func(context.Context) (string, error) {
			tried = append(tried, name)
			return name, err
		}
	}

	got, err := First(context.Background(),
		mk("a", errors.New("a failed")),
		mk("b", nil),
		mk("c", nil),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "b" {
		t.Fatalf("got %q, want b", got)
	}
	if len(tried) != 2 {
		t.Fatalf("tried %v, want the walk to stop at b", tried)
	}
}

func TestFirstReturnsLastError(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	_, err := First[int](context.Background(),
		func(context.Context) (int, error) { return 0, errA },
		func(context.Context) (int, error) { return 0, errB },
	)
	if !errors.Is(err, errB) {
		t.Fatalf("got %v, want last error", err)
	}
}

func TestFirstEmpty(t *testing.T) {
	_, err := First[int](context.Background())
	if !errors.Is(err, ErrNoStrategies) {
		t.Fatalf("got %v, want ErrNoStrategies", err)
	}
}

func TestFirstStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := First[int](ctx, func(context.Context) (int, error) {
		called = true
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if called {
		t.Fatal("strategy should not run after cancellation")
	}
}
