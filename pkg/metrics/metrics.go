// Package metrics exposes data profile and UICC lifecycle events as
// Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gregLibert/modem-core/pkg/dataprofile"
	"github.com/gregLibert/modem-core/pkg/uicc"
)

// Collector bundles the metrics and implements both dataprofile.Recorder and
// uicc.Recorder.
type Collector struct {
	gatherer prometheus.Gatherer

	Activations   *prometheus.CounterVec
	Deactivations *prometheus.CounterVec
	Conflicts     *prometheus.CounterVec
	AuthFailures  *prometheus.CounterVec
	ActiveConns   *prometheus.GaugeVec

	CardState        *prometheus.GaugeVec
	RecordsDisposals *prometheus.CounterVec
	Notifications    prometheus.Counter
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice against the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	activations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataprofile_activations_total",
		Help: "Connections attached to a data profile, labeled by IP version.",
	}, []string{"ip_version"}), "dataprofile_activations_total")
	if err != nil {
		return nil, err
	}
	deactivations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataprofile_deactivations_total",
		Help: "Connections detached from a data profile, labeled by IP version.",
	}, []string{"ip_version"}), "dataprofile_deactivations_total")
	if err != nil {
		return nil, err
	}
	conflicts, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataprofile_activation_conflicts_total",
		Help: "Activations that replaced a connection still attached, labeled by IP version.",
	}, []string{"ip_version"}), "dataprofile_activation_conflicts_total")
	if err != nil {
		return nil, err
	}
	authFailures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataprofile_auth_failures_total",
		Help: "Profiles marked not working by the network, labeled by IP version.",
	}, []string{"ip_version"}), "dataprofile_auth_failures_total")
	if err != nil {
		return nil, err
	}
	activeConns, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dataprofile_active_connections",
		Help: "Connections currently attached to data profiles, labeled by IP version.",
	}, []string{"ip_version"}), "dataprofile_active_connections")
	if err != nil {
		return nil, err
	}
	cardState, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "uicc_card_state",
		Help: "1 for the current card state, 0 for the others.",
	}, []string{"state"}), "uicc_card_state")
	if err != nil {
		return nil, err
	}
	disposals, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "uicc_records_disposed_total",
		Help: "Application record coordinators disposed, labeled by application type.",
	}, []string{"app_type"}), "uicc_records_disposed_total")
	if err != nil {
		return nil, err
	}
	notifications, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uicc_unavailable_notifications_total",
		Help: "Unavailability notifications delivered to record subscribers.",
	}), "uicc_unavailable_notifications_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		Activations:      activations,
		Deactivations:    deactivations,
		Conflicts:        conflicts,
		AuthFailures:     authFailures,
		ActiveConns:      activeConns,
		CardState:        cardState,
		RecordsDisposals: disposals,
		Notifications:    notifications,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) ProfileActivated(v dataprofile.IPVersion) {
	if c == nil {
		return
	}
	c.Activations.WithLabelValues(v.String()).Inc()
	c.ActiveConns.WithLabelValues(v.String()).Inc()
}

func (c *Collector) ProfileDeactivated(v dataprofile.IPVersion) {
	if c == nil {
		return
	}
	c.Deactivations.WithLabelValues(v.String()).Inc()
	c.ActiveConns.WithLabelValues(v.String()).Dec()
}

// ActivationConflict counts a replaced connection. The active gauge is left
// alone: one connection replaced another.
func (c *Collector) ActivationConflict(v dataprofile.IPVersion) {
	if c == nil {
		return
	}
	c.Conflicts.WithLabelValues(v.String()).Inc()
}

func (c *Collector) WorkingChanged(v dataprofile.IPVersion, working bool) {
	if c == nil || working {
		return
	}
	c.AuthFailures.WithLabelValues(v.String()).Inc()
}

var cardStates = []uicc.CardState{
	uicc.CardStateAbsent, uicc.CardStatePresent, uicc.CardStateError, uicc.CardStateRestricted,
}

func (c *Collector) CardStateChanged(state uicc.CardState) {
	if c == nil {
		return
	}
	for _, s := range cardStates {
		value := 0.0
		if s == state {
			value = 1
		}
		c.CardState.WithLabelValues(s.String()).Set(value)
	}
}

func (c *Collector) RecordsDisposed(app uicc.AppType, subscribers int) {
	if c == nil {
		return
	}
	c.RecordsDisposals.WithLabelValues(app.String()).Inc()
	c.Notifications.Add(float64(subscribers))
}

var (
	_ dataprofile.Recorder = (*Collector)(nil)
	_ uicc.Recorder        = (*Collector)(nil)
)

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}
