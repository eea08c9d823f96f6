package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	modelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamemaster_model_requests_total",
			Help: "Total number of chat model invocations, partitioned by model and provider.",
		},
		[]string{"model", "provider"},
	)
	modelErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamemaster_model_errors_total",
			Help: "Total number of failed chat model invocations, partitioned by model and error code.",
		},
		[]string{"model", "code"},
	)
	modelTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamemaster_model_tokens_total",
			Help: "Total tokens exchanged with chat models, partitioned by model and direction.",
		},
		[]string{"model", "direction"},
	)
)

func recordModelCall(model, provider string, tokensIn, tokensOut int) {
	modelRequests.WithLabelValues(model, provider).Inc()
	modelTokens.WithLabelValues(model, "in").Add(float64(tokensIn))
	modelTokens.WithLabelValues(model, "out").Add(float64(tokensOut))
}

func recordModelError(model, code string) {
	modelErrors.WithLabelValues(model, code).Inc()
}
