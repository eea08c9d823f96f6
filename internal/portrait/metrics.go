package portrait

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var portraitGenerations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gamemaster_portrait_generations_total",
		Help: "Total portrait generation outcomes, partitioned by entity kind and the model that served them.",
	},
	[]string{"kind", "model"},
)

func recordPortrait(kind, model string) {
	portraitGenerations.WithLabelValues(kind, model).Inc()
}
