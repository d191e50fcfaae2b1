package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var webhookOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "billing_webhook_outcomes_total",
	Help: "Итоги обработки платёжных уведомлений по типам.",
}, []string{"outcome"})
