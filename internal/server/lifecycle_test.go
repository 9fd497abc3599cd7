package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type mockService struct {
	started atomic.Bool
	stopped atomic.Bool
	startFn func() error
}

func (m *mockService) Start() error {
	m.started.Store(true)
	if m.startFn != nil {
		return m.startFn()
	}
	// Block until stopped
	for !m.stopped.Load() {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func (m *mockService) Stop() {
	m.stopped.Store(true)
}

func TestLifecycleStartsAndStopsServices(t *testing.T) {
	logger := zaptest.NewLogger(t)
	lc := NewLifecycle(logger)

	svc1 := &mockService{}
	svc2 := &mockService{}

	lc.Add("svc1", svc1)
	lc.Add("svc2", svc2)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- lc.Run(ctx)
	}()

	// Wait for services to start
	deadline := time.After(2 * time.Second)
	for {
		if svc1.started.Load() && svc2.started.Load() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("services did not start in time")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	assert.True(t, svc1.started.Load())
	assert.True(t, svc2.started.Load())

	// Trigger shutdown
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}

	assert.True(t, svc1.stopped.Load())
	assert.True(t, svc2.stopped.Load())
}

func TestFuncService(t *testing.T) {
	started := false
	stopped := false

	svc := &FuncService{
		StartFn: func() error {
			started = true
			return nil
		},
		StopFn: func() {
			stopped = true
		},
	}

	err := svc.Start()
	assert.NoError(t, err)
	assert.True(t, started)

	svc.Stop()
	assert.True(t, stopped)
}

type orderedService struct {
	name  string
	order *[]string
	mu    *sync.Mutex
	stop  chan struct{}
}

func (o *orderedService) Start() error {
	<-o.stop
	return nil
}

func (o *orderedService) Stop() {
	o.mu.Lock()
	*o.order = append(*o.order, o.name)
	o.mu.Unlock()
	close(o.stop)
}

func TestLifecycleStopsInReverseOrder(t *testing.T) {
	var (
		order []string
		mu    sync.Mutex
	)
	lc := NewLifecycle(zaptest.NewLogger(t))
	for _, name := range []string{"hub", "engine", "persistence"} {
		lc.Add(name, &orderedService{name: name, order: &order, mu: &mu, stop: make(chan struct{})})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, lc.Run(ctx))
	assert.Equal(t, []string{"persistence", "engine", "hub"}, order)
}

func TestLifecycleReturnsFailingServiceError(t *testing.T) {
	boom := errors.New("boom")
	lc := NewLifecycle(zaptest.NewLogger(t))
	healthy := &mockService{}
	lc.Add("healthy", healthy)
	lc.Add("broken", &mockService{startFn: func() error { return boom }})

	done := make(chan error, 1)
	go func() { done <- lc.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down after service failure")
	}
	assert.True(t, healthy.stopped.Load())
}

func TestContextService(t *testing.T) {
	var ran atomic.Bool
	svc := NewContextService(func(ctx context.Context) error {
		ran.Store(true)
		<-ctx.Done()
		return ctx.Err()
	})

	done := make(chan error, 1)
	go func() { done <- svc.Start() }()
	assert.Eventually(t, ran.Load, time.Second, 5*time.Millisecond)

	svc.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a clean stop")
	case <-time.After(time.Second):
		t.Fatal("ContextService did not stop")
	}
}

func TestContextService_StopBeforeStart(t *testing.T) {
	svc := NewContextService(func(ctx context.Context) error { return nil })
	svc.Stop()
}

func TestContextService_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewContextService(func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, svc.Start(), boom)
}
