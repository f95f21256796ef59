package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters exported on /metrics.
var (
	LessonsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_lessons_started_total",
		Help: "Lessons started by professors.",
	})
	LessonsTerminated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_lessons_terminated_total",
		Help: "Lessons terminated by professors.",
	})
	CheckIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_checkins_total",
		Help: "New student check-ins recorded (repeats excluded).",
	})
	Confirmations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_confirmations_total",
		Help: "Confirmation passes applied by professors.",
	})
)
