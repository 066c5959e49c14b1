// Package metrics defines the custom Prometheus metrics of the identity
// service. Every metric registers with the default registry on import and
// is served by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// SignupsTotal counts signup attempts.
// Label:
//   - outcome: "created", "otp_resent" or "error"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of signup attempts, by outcome.",
	},
	[]string{"outcome"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "unverified", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// OtpVerificationsTotal counts OTP verification attempts.
// Label:
//   - result: "success", "mismatch", "expired", "not_found" or "error"
var OtpVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of OTP verification attempts, by result.",
	},
	[]string{"result"},
)

// TokenRefreshesTotal counts session renewals.
// Labels:
//   - source: "endpoint" for POST /auth/refresh, "gateway" for silent refresh
//   - result: "success" or "failure"
var TokenRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of token refreshes, by source and result.",
	},
	[]string{"source", "result"},
)

// Result collapses an error into a success/failure label.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
