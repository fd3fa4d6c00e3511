// Package profile provides the interpreter's profiling side channel
// (spec.md §3.4, §6: "record block enters/exits/samples; may be
// absent (null)"). Grounded on spec.md §9's own design note —
// "replace function-pointer + user void* with a small interface" —
// with one optional Prometheus-backed implementation alongside the
// no-op one.
package profile

import "github.com/prometheus/client_golang/prometheus"

// BlockEvent distinguishes the three profile-op kinds the interpreter
// applies to a running thread (spec.md §3.4's ProfileOp).
type BlockEvent int

const (
	BlockEnter BlockEvent = iota
	BlockReplace
	BlockExit
)

// Sink receives profiling events. The scheduler in internal/interp
// holds no Sink and reports no events to one.
type Sink interface {
	// Block records a profile-op application for the named code block.
	Block(event BlockEvent, blockName string)
	// Sample records that a profiling sample was probabilistically
	// taken on the current instruction.
	Sample()
}

// NullSink discards every event.
type NullSink struct{}

func (NullSink) Block(BlockEvent, string) {}
func (NullSink) Sample()                  {}

// PrometheusSink reports block enter/exit/replace counts and sample
// counts as Prometheus counters, for embedding fble execution inside a
// larger service that already exports a /metrics endpoint.
type PrometheusSink struct {
	blockEvents *prometheus.CounterVec
	samples     prometheus.Counter
}

// NewPrometheusSink registers its metrics against reg and returns a
// ready-to-use Sink. Pass a dedicated *prometheus.Registry in tests to
// avoid colliding with the default global registry.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		blockEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fble",
			Subsystem: "interp",
			Name:      "block_events_total",
			Help:      "Count of profile-op block enter/replace/exit events by block name and kind.",
		}, []string{"block", "kind"}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fble",
			Subsystem: "interp",
			Name:      "samples_total",
			Help:      "Count of profiling samples taken during execution.",
		}),
	}
	reg.MustRegister(s.blockEvents, s.samples)
	return s
}

func (s *PrometheusSink) Block(event BlockEvent, blockName string) {
	s.blockEvents.WithLabelValues(blockName, blockEventString(event)).Inc()
}

func (s *PrometheusSink) Sample() { s.samples.Inc() }

func blockEventString(e BlockEvent) string {
	switch e {
	case BlockEnter:
		return "enter"
	case BlockReplace:
		return "replace"
	case BlockExit:
		return "exit"
	default:
		return "unknown"
	}
}
