// Package metrics exposes Prometheus instrumentation for invocation
// processing: counts, per-kind message tallies, and the live active-network
// gauge.
package metrics

import (
	"fmt"

	"github.com/ledgerwatch/log/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

const namespace = "epoch_oracle_"

var (
	InvocationsTotalName     = namespace + "invocations_total"
	InvocationErrorsName     = namespace + "invocation_errors_total"
	MessagesProcessedName    = namespace + "messages_processed_total"
	ActiveNetworksGaugeName  = namespace + "active_networks"
)

// InvocationsTotal counts every processed invocation, labeled by whether it
// committed a valid state change.
var InvocationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: InvocationsTotalName,
		Help: "total invocations processed, labeled by validity",
	},
	[]string{"valid"},
)

// InvocationErrorsTotal counts invalid invocations by their classified
// error kind (truncation, unknown_tag, invariant_violation, ...).
var InvocationErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: InvocationErrorsName,
		Help: "invalid invocations, labeled by error kind",
	},
	[]string{"kind"},
)

// MessagesProcessedTotal counts executed messages by kind.
var MessagesProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: MessagesProcessedName,
		Help: "messages processed, labeled by message kind",
	},
	[]string{"kind"},
)

// ActiveNetworksGauge tracks the active network count observed after the
// most recently committed invocation.
var ActiveNetworksGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: ActiveNetworksGaugeName,
		Help: "active network count as of the last committed invocation",
	},
)

// Init registers all collectors with the default Prometheus registry; call
// it once at process startup before serving /metrics.
func Init() {
	prometheus.MustRegister(InvocationsTotal)
	prometheus.MustRegister(InvocationErrorsTotal)
	prometheus.MustRegister(MessagesProcessedTotal)
	prometheus.MustRegister(ActiveNetworksGauge)
}

// Observer adapts the counters above to the driver.Observer interface.
type Observer struct{}

func (Observer) ObserveInvocation(valid bool, errorKind string) {
	InvocationsTotal.WithLabelValues(fmt.Sprintf("%v", valid)).Inc()
	if !valid {
		InvocationErrorsTotal.WithLabelValues(errorKind).Inc()
		log.Warn(fmt.Sprintf("[Invocation] rejected, kind=%s", errorKind))
	}
}

func (Observer) ObserveMessage(kind types.MessageKind) {
	MessagesProcessedTotal.WithLabelValues(kind.String()).Inc()
}

func (Observer) ObserveActiveNetworks(count uint64) {
	ActiveNetworksGauge.Set(float64(count))
}
