// Package idempotency models the stored responses that make keyed buy and
// cancel requests replay exactly once.
package idempotency
