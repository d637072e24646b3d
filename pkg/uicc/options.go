package uicc

import "log/slog"

// Recorder observes card and coordinator lifecycle events.
type Recorder interface {
	CardStateChanged(state CardState)
	RecordsDisposed(app AppType, subscribers int)
}

type config struct {
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Card or a Records coordinator.
type Option func(*config)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder attaches a lifecycle recorder.
func WithRecorder(r Recorder) Option {
	return func(c *config) {
		c.recorder = r
	}
}

func newConfig(opts []Option) config {
	c := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
