package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts login outcomes: success, invalid_credentials,
	// rate_limited, error.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocrm_auth_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"result"})

	// TokenVerifications counts verifier outcomes on protected routes.
	TokenVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocrm_auth_token_verifications_total",
		Help: "Token verifications by outcome.",
	}, []string{"result"})

	// GuardDenials counts access guard rejections by reason.
	GuardDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocrm_auth_guard_denials_total",
		Help: "Access guard denials by reason.",
	}, []string{"reason"})
)
