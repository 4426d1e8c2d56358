package rest

import (
	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bridgeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_bridge_events_total",
		Help: "Number of bridge events by type",
	}, []string{"type"})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_rejections_total",
		Help: "Number of rejected operations by error class",
	}, []string{"class"})

	escrowBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portal_fee_escrow_balance",
		Help: "Current fee escrow balance",
	})
)

func observeEvents(events []domain.Event) {
	for _, event := range events {
		bridgeEventsTotal.WithLabelValues(string(event.Type())).Inc()
		switch e := event.(type) {
		case domain.FeesCollected:
			escrowBalance.Set(float64(e.NewBalance))
		case domain.FeesWithdrawn:
			escrowBalance.Set(0)
		}
	}
}

func observeRejection(err domain.Error) {
	rejectionsTotal.WithLabelValues(string(err.Class())).Inc()
}
