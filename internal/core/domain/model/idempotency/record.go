package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"freight/internal/pkg/errs"
	"freight/internal/pkg/guard"
)

var (
	ErrRecordIsNotConstructed = errors.New("Record must be created via NewRecord constructor")

	keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
)

// Scope separates keys used for different operations on the same transfer.
type Scope string

const (
	ScopeBuyLabel    Scope = "buy_label"
	ScopeCancelLabel Scope = "cancel_label"
)

// Key is a validated client idempotency key.
type Key string

// ParseKey validates a client-supplied key. An empty string returns an empty
// key and no error: the request is simply not idempotent.
func ParseKey(raw string) (Key, error) {
	if raw == "" {
		return "", nil
	}
	if !keyPattern.MatchString(raw) {
		return "", errs.NewValueIsInvalidErrorWithCause(
			"idempotency_key",
			fmt.Errorf("must match %s", keyPattern.String()),
		)
	}
	return Key(raw), nil
}

func (k Key) IsZero() bool {
	return k == ""
}

// Fingerprint is the sha256 hex digest of the canonical JSON encoding of the
// request. Map keys are sorted by encoding/json, so equal payloads hash equal.
func Fingerprint(scope Scope, transferID int64, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("fingerprint payload: %w", err)
	}
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s|%d|", scope, transferID)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Record is the stored outcome of the first successful handling of a keyed
// request. Replays return Response with StatusCode and RequestID unchanged.
type Record struct {
	key         Key
	scope       Scope
	transferID  int64
	fingerprint string
	statusCode  int
	response    json.RawMessage
	requestID   string
	createdAt   time.Time
	guard       guard.ConstructorGuard
}

func NewRecord(
	key Key,
	scope Scope,
	transferID int64,
	fingerprint string,
	statusCode int,
	response json.RawMessage,
	requestID string,
	now time.Time,
) (*Record, error) {
	if key.IsZero() {
		return nil, errs.NewValueIsRequiredError("idempotency_key")
	}
	if fingerprint == "" {
		return nil, errs.NewValueIsRequiredError("fingerprint")
	}
	if statusCode < http.StatusOK || statusCode > 599 {
		return nil, errs.NewValueIsOutOfRangeError("status_code", statusCode, http.StatusOK, 599)
	}
	if !json.Valid(response) {
		return nil, errs.NewValueIsInvalidError("response")
	}
	return &Record{
		key:         key,
		scope:       scope,
		transferID:  transferID,
		fingerprint: fingerprint,
		statusCode:  statusCode,
		response:    append(json.RawMessage(nil), response...),
		requestID:   requestID,
		createdAt:   now.UTC(),
		guard:       guard.NewConstructorGuard(),
	}, nil
}

// RestoreRecord rebuilds a record from storage without validation.
func RestoreRecord(
	key Key,
	scope Scope,
	transferID int64,
	fingerprint string,
	statusCode int,
	response json.RawMessage,
	requestID string,
	createdAt time.Time,
) *Record {
	return &Record{
		key:         key,
		scope:       scope,
		transferID:  transferID,
		fingerprint: fingerprint,
		statusCode:  statusCode,
		response:    response,
		requestID:   requestID,
		createdAt:   createdAt,
		guard:       guard.NewConstructorGuard(),
	}
}

func (r *Record) Validate() error {
	if r == nil {
		return ErrRecordIsNotConstructed
	}
	return r.guard.Validate(ErrRecordIsNotConstructed)
}

func (r *Record) Key() Key                  { return r.key }
func (r *Record) Scope() Scope              { return r.scope }
func (r *Record) TransferID() int64         { return r.transferID }
func (r *Record) Fingerprint() string       { return r.fingerprint }
func (r *Record) StatusCode() int           { return r.statusCode }
func (r *Record) Response() json.RawMessage { return r.response }
func (r *Record) RequestID() string         { return r.requestID }
func (r *Record) CreatedAt() time.Time      { return r.createdAt }

// Matches reports whether a replayed request carries the same payload.
func (r *Record) Matches(fingerprint string) bool {
	return r.fingerprint == fingerprint
}
