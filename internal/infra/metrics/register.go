package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are declared in per-concern files (ai.go, chat.go), queued by
// their init funcs, and handed to Prometheus in one place. main calls
// MustRegister once during startup.

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister registers every queued collector with the default registry.
// Safe to call more than once; only the first call does anything.
func MustRegister() {
	registerOnce.Do(func() {
		if len(pending) > 0 {
			prometheus.MustRegister(pending...)
		}
	})
}
