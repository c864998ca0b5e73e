package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/anvko/shop_admin_app/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionSweeper_SweepsUntilCancelled(t *testing.T) {
	sessionRepo := new(MockSessionRepository)

	swept := make(chan struct{}, 1)
	sessionRepo.On("SweepExpiredSessions", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			select {
			case swept <- struct{}{}:
			default:
			}
		}).
		Return(int64(3), nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := services.NewSessionSweeper(sessionRepo, 5*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}

	sessionRepo.AssertCalled(t, "SweepExpiredSessions", mock.Anything, mock.AnythingOfType("time.Time"))
}

func TestSessionSweeper_KeepsRunningAfterSweepError(t *testing.T) {
	sessionRepo := new(MockSessionRepository)

	calls := make(chan struct{}, 4)
	sessionRepo.On("SweepExpiredSessions", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			select {
			case calls <- struct{}{}:
			default:
			}
		}).
		Return(int64(0), errors.New("connection reset")).Once()
	sessionRepo.On("SweepExpiredSessions", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			select {
			case calls <- struct{}{}:
			default:
			}
		}).
		Return(int64(0), nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := services.NewSessionSweeper(sessionRepo, 5*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	// A failed sweep must not kill the loop; wait for at least two ticks.
	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("sweep %d never happened", i+1)
		}
	}
	require.GreaterOrEqual(t, len(sessionRepo.Calls), 2)
}
