package mfa

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Verification methods used as metric labels.
const (
	metricMethodTOTP       = "totp"
	metricMethodBackupCode = "backup_code"
)

// Enrollment lifecycle events used as metric labels.
const (
	EventSetup                  = "setup"
	EventActivated              = "activated"
	EventDisabled               = "disabled"
	EventBackupCodesRegenerated = "backup_codes_regenerated"
)

// Metrics exposes Prometheus collectors for the MFA service.
type Metrics struct {
	Verifications *prometheus.CounterVec
	Lockouts      prometheus.Counter
	Enrollments   *prometheus.CounterVec
}

// NewMetrics creates unregistered collectors. An empty namespace is allowed.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mfa_verifications_total",
			Help:      "Second-factor verification attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		Lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mfa_lockouts_total",
			Help:      "Lockouts started after too many failed verification attempts.",
		}),
		Enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mfa_enrollments_total",
			Help:      "Enrollment lifecycle events.",
		}, []string{"event"}),
	}
}

// Register registers the collectors on reg, or on the default registerer when reg is nil.
// When a collector with the same description is already registered, m adopts it so
// observations land in the registered series.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	verifications, err := register(reg, m.Verifications)
	if err != nil {
		return err
	}
	lockouts, err := register(reg, m.Lockouts)
	if err != nil {
		return err
	}
	enrollments, err := register(reg, m.Enrollments)
	if err != nil {
		return err
	}

	m.Verifications, m.Lockouts, m.Enrollments = verifications, lockouts, enrollments
	return nil
}

// register returns c, or the collector already registered in its place.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var already prometheus.AlreadyRegisteredError
	if !errors.As(err, &already) {
		return c, err
	}
	existing, ok := already.ExistingCollector.(C)
	if !ok {
		return c, fmt.Errorf("metrics: collector %T registered in place of %T", already.ExistingCollector, c)
	}
	return existing, nil
}

func (m *Metrics) observeVerification(method string, kind Kind) {
	if m == nil {
		return
	}
	outcome := string(kind)
	if kind == KindNone {
		outcome = "success"
	}
	m.Verifications.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) observeLockout() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

func (m *Metrics) observeEnrollment(event string) {
	if m == nil {
		return
	}
	m.Enrollments.WithLabelValues(event).Inc()
}
