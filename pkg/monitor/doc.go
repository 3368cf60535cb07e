// Package monitor keeps signed-in sessions honest by re-verifying them against
// Twitter at most once every six hours, and at least once per UTC day.
//
// A Monitor is triggered, never self-driven. Hosts feed it start events through
// a Lifecycle (Observe), HTTP traffic (Lifecycle.Middleware) or a cron schedule
// (Schedule):
//
//	m, _ := monitor.New(userManager, monitor.NewAPIVerifier(core))
//	lc := monitor.NewLifecycle()
//	m.Observe(lc)
//	lc.Started(ctx)
//
// Verification failures are only logged. A revoked session is reported by the
// API client the next time it is used.
package monitor
