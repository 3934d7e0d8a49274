package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NotificationDispatcher - часть NotificationService, нужная диспетчеру
type NotificationDispatcher interface {
	DispatchPending(ctx context.Context) (int, error)
}

// Dispatcher периодически отправляет уведомления из outbox
type Dispatcher struct {
	notifications NotificationDispatcher
	interval      time.Duration
	logger        *zap.Logger
	stopChan      chan struct{}
	stopOnce      sync.Once
	done          chan struct{}
}

// NewDispatcher создаёт диспетчер уведомлений
func NewDispatcher(notifications NotificationDispatcher, interval time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		interval:      interval,
		logger:        logger,
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start запускает фоновую отправку
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting notification dispatcher", zap.Duration("interval", d.interval))
	go d.run(ctx)
}

// Stop останавливает отправку и ждёт завершения текущей пачки
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("Stopping notification dispatcher")
		close(d.stopChan)
	})
	<-d.done
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	// Первый запуск сразу при старте
	d.dispatch(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.dispatch(ctx)
		case <-d.stopChan:
			d.logger.Info("Notification dispatcher stopped")
			return
		case <-ctx.Done():
			d.logger.Info("Notification dispatcher cancelled")
			return
		}
	}
}

// dispatch отправляет одну пачку; неудачные уведомления ждут следующего тика
func (d *Dispatcher) dispatch(ctx context.Context) {
	sent, err := d.notifications.DispatchPending(ctx)
	if err != nil {
		if ctx.Err() == nil {
			d.logger.Error("Failed to dispatch notifications", zap.Error(err))
		}
		return
	}
	if sent > 0 {
		d.logger.Info("Notifications sent", zap.Int("count", sent))
	}
}
