package connectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/hyperbench/core/domain"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

func TestConnectorManager_InitializeAll(t *testing.T) {
	m := NewConnectorManager(nil)
	creds := map[string]domain.Credentials{
		"fake":   {},
		"sqlite": {"path": ":memory:"},
	}

	require.NoError(t, m.InitializeAll(context.Background(), creds, []string{"fake", "sqlite"}))
	assert.Equal(t, 2, m.Count())

	conn, ok := m.Get("fake")
	require.True(t, ok)
	assert.Equal(t, VendorFake, conn.Vendor())

	require.NoError(t, m.Close("sqlite"))
	assert.Equal(t, 1, m.Count())

	require.NoError(t, m.CloseAll())
	assert.Equal(t, 0, m.Count())
}

func TestConnectorManager_InitializeAllFailsFast(t *testing.T) {
	tests := []struct {
		name    string
		creds   map[string]domain.Credentials
		vendors []string
		message string
	}{
		{
			name:    "vendor without credentials",
			creds:   map[string]domain.Credentials{"fake": {}},
			vendors: []string{"fake", "snowflake"},
			message: "available vendors: [fake]",
		},
		{
			name:    "invalid credentials",
			creds:   map[string]domain.Credentials{"fake": {}, "redis": {}},
			vendors: []string{"fake", "redis"},
			message: "missing required credentials for redis: url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConnectorManager(nil)
			err := m.InitializeAll(context.Background(), tt.creds, tt.vendors)
			require.Error(t, err)
			assert.True(t, apperrors.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, 0, m.Count())
		})
	}
}
