// Package metrics exposes Prometheus counters for invite tracking.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Join outcomes.
const (
	JoinAttributed   = "attributed"
	JoinUnattributed = "unattributed"
	JoinDuplicate    = "duplicate"
	JoinFetchFailed  = "fetch_failed"
	JoinStoreFailed  = "store_failed"
)

// Leave outcomes.
const (
	LeaveReversed = "reversed"
	LeaveNoop     = "noop"
	LeaveFailed   = "failed"
)

// Joins counts member join events by outcome.
var Joins = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "invitetrack",
	Subsystem: "members",
	Name:      "joins_total",
	Help:      "Member join events by attribution outcome.",
}, []string{"result"})

// Leaves counts member leave events by outcome.
var Leaves = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "invitetrack",
	Subsystem: "members",
	Name:      "leaves_total",
	Help:      "Member leave events by reversal outcome.",
}, []string{"result"})

// Interactions counts handled slash commands and button presses.
var Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "invitetrack",
	Subsystem: "bot",
	Name:      "interactions_total",
	Help:      "Slash commands and button presses by name.",
}, []string{"name"})

// CachedGuilds tracks how many guilds hold an invite snapshot.
var CachedGuilds = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "invitetrack",
	Subsystem: "invites",
	Name:      "cached_guilds",
	Help:      "Guilds with a primed invite usage snapshot.",
})
