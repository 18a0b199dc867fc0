// Package metrics holds the service's Prometheus collectors, exposed on
// /metrics by the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eduattend_sessions_opened_total",
		Help: "Attendance sessions opened.",
	})

	SessionsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eduattend_sessions_closed_total",
		Help: "Attendance sessions closed, manual and expiry closes alike.",
	})

	AttendanceLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eduattend_attendance_logged_total",
		Help: "Attendance logs written.",
	})

	VerificationRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eduattend_verification_rejected_total",
		Help: "Rejected attendance submissions by reason.",
	}, []string{"reason"})
)
