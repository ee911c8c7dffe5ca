package mfa

import (
	"log/slog"
	"time"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, mainly for tests that need to cross step or lockout boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics enables Prometheus instrumentation. Register the collectors separately.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithQRCodeSize overrides Config.QRCodeSize. Zero disables QR rendering in Setup.
func WithQRCodeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.qrSize = size
		}
	}
}
