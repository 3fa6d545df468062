package clicks

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) RegisterClick(ctx context.Context, shortCode string, accessedAt time.Time) error {
	args := r.Called(ctx, shortCode, accessedAt)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_Record(t *testing.T) {
	t.Run("enqueues click", func(t *testing.T) {
		repoMock := new(MockURLRepository)
		rec := NewRecorder(repoMock, discardLogger(), WithQueueSize(1))

		assert.True(t, rec.Record("code1"))

		ev := <-rec.queue
		assert.Equal(t, "code1", ev.ShortCode)
		assert.False(t, ev.AccessedAt.IsZero())
	})

	t.Run("drops click when queue is full", func(t *testing.T) {
		repoMock := new(MockURLRepository)
		rec := NewRecorder(repoMock, discardLogger(), WithQueueSize(1))

		assert.True(t, rec.Record("code1"))
		assert.False(t, rec.Record("code2"))

		repoMock.AssertNotCalled(t, "RegisterClick")
	})
}

func TestRecorder_Run(t *testing.T) {
	t.Run("applies queued clicks", func(t *testing.T) {
		repoMock := new(MockURLRepository)
		applied := make(chan struct{}, 10)

		repoMock.On("RegisterClick", mock.Anything, "code1", mock.AnythingOfType("time.Time")).
			Run(func(args mock.Arguments) {
				applied <- struct{}{}
			}).
			Return(nil)

		rec := NewRecorder(repoMock, discardLogger(), WithWorkers(2))

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			defer close(done)
			rec.Run(ctx)
		}()

		const n = 5
		for i := 0; i < n; i++ {
			assert.True(t, rec.Record("code1"))
		}

		for i := 0; i < n; i++ {
			select {
			case <-applied:
			case <-time.After(time.Second):
				t.Fatal("click was not applied in time")
			}
		}

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("recorder did not stop in time")
		}

		repoMock.AssertNumberOfCalls(t, "RegisterClick", n)
	})

	t.Run("drains queue on shutdown", func(t *testing.T) {
		repoMock := new(MockURLRepository)
		repoMock.On("RegisterClick", mock.Anything, "code1", mock.AnythingOfType("time.Time")).
			Return(nil)

		rec := NewRecorder(repoMock, discardLogger(), WithWorkers(1))

		const n = 7
		for i := 0; i < n; i++ {
			assert.True(t, rec.Record("code1"))
		}

		// The context is already cancelled: the worker must still apply
		// everything sitting in the queue before returning.
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			rec.Run(ctx)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("recorder did not drain in time")
		}

		repoMock.AssertNumberOfCalls(t, "RegisterClick", n)
	})

	t.Run("concurrent records are all applied", func(t *testing.T) {
		repoMock := new(MockURLRepository)
		repoMock.On("RegisterClick", mock.Anything, "code1", mock.AnythingOfType("time.Time")).
			Return(nil)

		rec := NewRecorder(repoMock, discardLogger(), WithWorkers(4), WithQueueSize(128))

		const n = 50
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				assert.True(t, rec.Record("code1"))
			}()
		}
		wg.Wait()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			rec.Run(ctx)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("recorder did not drain in time")
		}

		repoMock.AssertNumberOfCalls(t, "RegisterClick", n)
	})
}
