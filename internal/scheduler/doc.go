// Package scheduler owns service bootstrap and recurring job dispatch.
//
// Bootstrap gates job execution behind a retried storage probe and a
// migration pass, so a briefly unavailable database delays startup
// instead of failing it. Jobs run under standard five-field cron
// expressions with panic recovery and at-most-one-instance semantics
// per job; a failing job marks the service degraded without stopping
// the dispatch loop.
package scheduler
