// Package notify routes real-time events to connected users.
//
// A Registry maps each identified user to at most one live connection.
// A Router turns claim-state transitions into per-user events with Plan
// and delivers them to whatever connections the Registry knows about.
// Delivery is at-most-once: offline users are skipped and send errors are
// dropped, so clients reconcile by re-fetching when they reconnect.
package notify
