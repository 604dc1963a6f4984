// Package alert delivers trade outcomes and failures to the operator.
package alert

import "go.uber.org/zap"

// Notifier accepts one-line alerts. Send must not block on delivery.
type Notifier interface {
	Send(message string) error
	Close() error
}

// NoOpNotifier discards every alert.
type NoOpNotifier struct{}

// NewNoOpNotifier returns a Notifier that drops alerts.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

func (n *NoOpNotifier) Send(message string) error { return nil }

func (n *NoOpNotifier) Close() error { return nil }

// LogNotifier writes alerts to a logger. Used when no chat channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a Notifier writing each alert at info level.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(message string) error {
	n.logger.Info("alert", zap.String("message", message))
	return nil
}

func (n *LogNotifier) Close() error { return nil }
