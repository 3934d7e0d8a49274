// Package notify доставляет уведомления студентам.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrNoChannel - у получателя нет канала для этого способа доставки
var ErrNoChannel = errors.New("recipient has no delivery channel")

type Recipient struct {
	UserID     int64
	Name       string
	Email      string
	TelegramID *int64
}

type Message struct {
	Subject string
	Body    string
}

type Notifier interface {
	Notify(ctx context.Context, to Recipient, msg Message) error
}

// Multi отправляет сообщение во все каналы, доступные получателю.
// Ошибка возвращается, только если не удалось доставить ни в один.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, to Recipient, msg Message) error {
	var errs []error
	delivered := false

	for _, n := range m {
		err := n.Notify(ctx, to, msg)
		switch {
		case err == nil:
			delivered = true
		case errors.Is(err, ErrNoChannel):
		default:
			errs = append(errs, err)
		}
	}

	if delivered {
		return nil
	}
	if len(errs) == 0 {
		return ErrNoChannel
	}
	return errors.Join(errs...)
}

// LogNotifier только пишет сообщение в лог, когда реальные каналы не настроены
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, to Recipient, msg Message) error {
	n.logger.Info("Notification",
		zap.Int64("user_id", to.UserID),
		zap.String("email", to.Email),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}
