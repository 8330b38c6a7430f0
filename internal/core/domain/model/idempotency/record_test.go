package idempotency_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freight/internal/core/domain/model/idempotency"
	"freight/internal/pkg/errs"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "empty is allowed", raw: ""},
		{name: "simple", raw: "abc"},
		{name: "dashes and underscores", raw: "order_12-retry"},
		{name: "max length", raw: strings.Repeat("a", 128)},
		{name: "too long", raw: strings.Repeat("a", 129), wantErr: true},
		{name: "space", raw: "a b", wantErr: true},
		{name: "slash", raw: "a/b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := idempotency.ParseKey(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrValueIsInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, idempotency.Key(tt.raw), key)
		})
	}
}

func TestFingerprint(t *testing.T) {
	a, err := idempotency.Fingerprint(idempotency.ScopeBuyLabel, 1, map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	b, err := idempotency.Fingerprint(idempotency.ScopeBuyLabel, 1, map[string]any{"a": 2, "b": 1})
	require.NoError(t, err)
	c, err := idempotency.Fingerprint(idempotency.ScopeCancelLabel, 1, map[string]any{"a": 2, "b": 1})
	require.NoError(t, err)
	d, err := idempotency.Fingerprint(idempotency.ScopeBuyLabel, 2, map[string]any{"a": 2, "b": 1})
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestNewRecord(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	body := json.RawMessage(`{"ok":true}`)

	r, err := idempotency.NewRecord("abc", idempotency.ScopeBuyLabel, 9, "f1", 200, body, "req-1", now)

	require.NoError(t, err)
	require.NoError(t, r.Validate())
	assert.True(t, r.Matches("f1"))
	assert.False(t, r.Matches("f2"))
	assert.JSONEq(t, `{"ok":true}`, string(r.Response()))
	assert.Equal(t, "req-1", r.RequestID())

	_, err = idempotency.NewRecord("", idempotency.ScopeBuyLabel, 9, "f1", 200, body, "", now)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = idempotency.NewRecord("abc", idempotency.ScopeBuyLabel, 9, "f1", 200, json.RawMessage(`{`), "", now)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = idempotency.NewRecord("abc", idempotency.ScopeBuyLabel, 9, "f1", 100, body, "", now)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}
