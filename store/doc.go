// Package store persists realtime timer records.
//
// All records live in a single serialized collection stored under one key of
// a string-keyed Provider. The wire format is shared with earlier releases
// and must not change:
//
//	{"timersData":[{"timerIndex":7,"startDateTimeStr":"10/19/2026 14:03:05","timerSeconds":90,"dataIsReady":true}]}
//
// The timestamp uses the MM/dd/yyyy HH:mm:ss pattern in local time; an empty
// string marks a record that has not been armed yet.
//
// # Failure Handling
//
// Reads never fail the caller: a missing, unreadable or corrupt collection
// loads as empty. Writes go straight through to the provider and return the
// provider's error, which callers treat as best effort.
package store
