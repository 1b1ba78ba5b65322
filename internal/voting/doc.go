// Package voting implements the vote engine: a single-writer actor that
// owns the in-memory vote ledger and serializes every tally mutation.
//
// All writes for all subjects flow through one goroutine, so a user's
// current vote, the transition it produces, and the resulting counter
// update are computed without locks and without read-modify-write races.
// Counter changes are persisted together with the vote record before the
// ledger is committed, so the stored tallies never drift from the ledger.
package voting
