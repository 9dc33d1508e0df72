package utils

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

type ShutdownManager struct {
	cancelFunc    context.CancelFunc
	shutdownTasks []func(context.Context) error
	mu            sync.Mutex
	log           *logrus.Entry
	once          sync.Once
	done          chan struct{}
}

func NewShutdownManager(ctx context.Context, log *logrus.Entry) (context.Context, *ShutdownManager) {
	ctx, cancel := context.WithCancel(ctx)
	manager := &ShutdownManager{
		cancelFunc: cancel,
		log:        log,
		done:       make(chan struct{}),
	}
	return ctx, manager
}

func (sm *ShutdownManager) Register(task func(context.Context) error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.shutdownTasks = append(sm.shutdownTasks, task)
}

func (sm *ShutdownManager) StartListening() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		sm.log.WithField("signal", sig.String()).Info("shutdown signal received")
		sm.Shutdown()
	}()
}

// Shutdown cancels the root context and runs registered tasks in reverse order
func (sm *ShutdownManager) Shutdown() {
	sm.once.Do(sm.shutdown)
}

func (sm *ShutdownManager) shutdown() {
	sm.cancelFunc()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sm.mu.Lock()
	defer sm.mu.Unlock()
	for i := len(sm.shutdownTasks) - 1; i >= 0; i-- {
		if err := sm.shutdownTasks[i](ctx); err != nil {
			sm.log.WithError(err).Error("error during shutdown")
		}
	}
	sm.shutdownTasks = nil

	sm.log.Info("graceful shutdown complete")
	close(sm.done)
}

// Wait blocks until Shutdown has finished
func (sm *ShutdownManager) Wait() {
	<-sm.done
}
