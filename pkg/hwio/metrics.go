package hwio

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what a Writer pushed to hardware. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	RegistersWritten prometheus.Counter
	BytesWritten     prometheus.Counter
	VerifyFailures   prometheus.Counter
}

// NewMetrics creates the writer counters and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RegistersWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "regmap_registers_written_total",
				Help: "Number of register write transactions sent to the chip",
			},
		),
		BytesWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "regmap_bytes_written_total",
				Help: "Number of register data bytes sent to the chip",
			},
		),
		VerifyFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "regmap_verify_failures_total",
				Help: "Number of registers whose read-back differed from the written value",
			},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.RegistersWritten, m.BytesWritten, m.VerifyFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) wrote(bytes int) {
	if m == nil {
		return
	}
	m.RegistersWritten.Inc()
	m.BytesWritten.Add(float64(bytes))
}

func (m *Metrics) verifyFailed() {
	if m == nil {
		return
	}
	m.VerifyFailures.Inc()
}
