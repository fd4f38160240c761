package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorResult_AlwaysHasMessage(t *testing.T) {
	exec := Execution{Vendor: "snowflake", Query: NewQuery(1, "SELECT 1"), ConcurrentRun: 1, Iteration: 1, TotalIterations: 1}

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"with error", errors.New("relation does not exist"), "relation does not exist"},
		{"nil error", nil, ErrEmptyErrorMessage.Message},
		{"empty message", errors.New(""), ErrEmptyErrorMessage.Message},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewErrorResult(exec, time.Second, tt.err)
			assert.Equal(t, StatusError, r.Status)
			assert.Equal(t, tt.expected, r.Error)
			assert.Equal(t, 0, r.RowCount)
			assert.False(t, r.Succeeded())
		})
	}
}

func TestNewSuccessResult(t *testing.T) {
	exec := Execution{Vendor: "redshift", Query: NewQuery(2, "SELECT 2"), ConcurrentRun: 3, Iteration: 5, TotalIterations: 5}

	r := NewSuccessResult(exec, 1500*time.Millisecond, 7)
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, "2", r.QueryName)
	assert.Equal(t, 2, r.QueryNumber)
	assert.Equal(t, 7, r.RowCount)
	assert.InDelta(t, 1.5, r.Duration, 1e-9)
	assert.Empty(t, r.Error)
	assert.True(t, r.IsFinalIteration())

	negative := NewSuccessResult(exec, 0, -1)
	assert.Equal(t, 0, negative.RowCount)
}

func TestQuery_Validate(t *testing.T) {
	assert.NoError(t, NewQuery(1, "SELECT 1").Validate())
	assert.ErrorIs(t, NewQuery(0, "SELECT 1").Validate(), ErrInvalidQueryNumber)
	assert.ErrorIs(t, NewQuery(1, "  ").Validate(), ErrInvalidQueryStatement)
}

func TestCredentials_Accessors(t *testing.T) {
	creds := Credentials{
		"host":   "example.com",
		"port":   "5439",
		"blank":  "  ",
		"stop":   "false",
		"auth":   map[string]any{"id": "x", "secret": "y"},
		"weight": 2.0,
	}

	assert.True(t, creds.Has("host"))
	assert.False(t, creds.Has("blank"))
	assert.False(t, creds.Has("missing"))
	assert.Equal(t, 5439, creds.Int("port", 0))
	assert.Equal(t, 2, creds.Int("weight", 0))
	assert.Equal(t, 9, creds.Int("missing", 9))
	assert.False(t, creds.Bool("stop", true))
	assert.Equal(t, "fallback", creds.StringOr("blank", "fallback"))

	auth, ok := creds.Map("auth")
	assert.True(t, ok)
	assert.Equal(t, "x", auth["id"])

	clone := creds.Clone()
	cloneAuth, _ := clone.Map("auth")
	cloneAuth["id"] = "changed"
	assert.Equal(t, "x", auth["id"])
}

func TestCredentials_StringOr(t *testing.T) {
	creds := Credentials{
		"host":     "db.internal",
		"blank":    "  ",
		"tabs":     "\t\n",
		"empty":    "",
		"port":     5432,
		"nothing":  nil,
		"database": " tpch ",
	}

	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "value", key: "host", want: "db.internal"},
		{name: "whitespace", key: "blank", want: "fallback"},
		{name: "control whitespace", key: "tabs", want: "fallback"},
		{name: "empty", key: "empty", want: "fallback"},
		{name: "non-string", key: "port", want: "5432"},
		{name: "nil", key: "nothing", want: "fallback"},
		{name: "missing", key: "missing", want: "fallback"},
		{name: "padded value kept as is", key: "database", want: " tpch "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, creds.StringOr(tt.key, "fallback"))
			assert.Equal(t, creds.Has(tt.key), tt.want != "fallback")
		})
	}
}
