package host

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rony4d/interest-vault/inter"
	"github.com/rony4d/interest-vault/vaulterr"
)

// Metrics instruments a Processor. Each processor should get its own
// registry; the collectors are not shared.
type Metrics struct {
	Instructions *prometheus.CounterVec
	TokenCalls   *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
}

// NewMetrics registers the processor collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Instructions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interest_vault_instructions_total",
				Help: "Total number of processed instructions",
			},
			[]string{"op", "result"},
		),
		TokenCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interest_vault_token_calls_total",
				Help: "Total number of committed token program calls",
			},
			[]string{"tag"},
		),
		Duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "interest_vault_instruction_duration_seconds",
				Help:    "Duration of instruction execution, lock wait included",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
			},
			[]string{"op"},
		),
	}
}

// opLabel names the selector of raw instruction data.
func opLabel(data []byte) string {
	if len(data) == 0 || data[0] > uint8(inter.OpClaim) {
		return "unknown"
	}
	return inter.Op(data[0]).String()
}

func tagLabel(tag uint8) string {
	switch tag {
	case TagTransferChecked:
		return "transfer_checked"
	case TagMintToChecked:
		return "mint_to_checked"
	case TagBurnChecked:
		return "burn_checked"
	}
	return "unknown"
}

func (m *Metrics) observe(data []byte, res Result, err error, took time.Duration) {
	op := opLabel(data)
	result := "ok"
	if err != nil {
		result = vaulterr.Name(err)
	}
	m.Instructions.WithLabelValues(op, result).Inc()
	m.Duration.WithLabelValues(op).Observe(took.Seconds())
	for _, c := range res.Calls {
		m.TokenCalls.WithLabelValues(tagLabel(c.Tag)).Inc()
	}
}

// Option configures a Processor.
type Option func(*Processor)

// WithMetrics instruments the processor with m.
func WithMetrics(m *Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}
