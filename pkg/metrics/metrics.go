package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthAdmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "reservio", Name: "auth_admitted_total", Help: "Number of requests admitted by the auth guard."},
	)
	AuthRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reservio", Name: "auth_rejected_total", Help: "Number of requests rejected by the auth guard, by coarse reason."},
		[]string{"reason"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reservio", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reservio", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(AuthAdmitted)
	reg.MustRegister(AuthRejected)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
