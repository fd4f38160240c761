package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/hyperbench/core/domain"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

func TestValidateCredentials_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		vendor  string
		creds   domain.Credentials
		missing []string
	}{
		{
			name:    "snowflake without password",
			vendor:  VendorSnowflake,
			creds:   domain.Credentials{"account": "acme", "user": "bench"},
			missing: []string{"password"},
		},
		{
			name:    "redshift empty",
			vendor:  VendorRedshift,
			creds:   domain.Credentials{},
			missing: []string{"host", "database", "user", "password"},
		},
		{
			name:    "bigquery alias",
			vendor:  "bigquery",
			creds:   domain.Credentials{"project_id": "p", "key": map[string]any{"type": "service_account"}},
			missing: []string{"dataset"},
		},
		{
			name:    "firebolt blank strings count as missing",
			vendor:  VendorFirebolt,
			creds:   domain.Credentials{"account_name": "", "database": "db", "engine_name": "e", "auth": map[string]any{"id": "i", "secret": "s"}},
			missing: []string{"account_name"},
		},
		{
			name:    "mongodb",
			vendor:  VendorMongoDB,
			creds:   domain.Credentials{"database": "bench"},
			missing: []string{"uri"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.vendor, tt.creds)
			require.Error(t, err)
			assert.True(t, apperrors.IsConfigurationError(err))
			assert.Equal(t, tt.missing, apperrors.MissingFields(err))

			_, err = NewConnector(tt.vendor, tt.creds)
			assert.True(t, apperrors.IsConfigurationError(err))
		})
	}
}

func TestValidateCredentials_FireboltAuth(t *testing.T) {
	base := func(auth any) domain.Credentials {
		return domain.Credentials{
			"account_name": "acme",
			"database":     "bench",
			"engine_name":  "bench_engine",
			"auth":         auth,
		}
	}

	tests := []struct {
		name  string
		auth  any
		valid bool
	}{
		{"complete", map[string]any{"id": "client", "secret": "s3cret"}, true},
		{"missing secret", map[string]any{"id": "client"}, false},
		{"not a mapping", "client:s3cret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(VendorFirebolt, base(tt.auth))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsConfigurationError(err))
			assert.Equal(t, []string{"auth"}, apperrors.MissingFields(err))
		})
	}
}

func TestValidateCredentials_UnknownVendor(t *testing.T) {
	err := ValidateCredentials("oracle", domain.Credentials{"host": "db"})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "unsupported vendor 'oracle'")
}

func TestNewConnector_DoesNotConnect(t *testing.T) {
	conn, err := NewConnector(VendorPostgres, domain.Credentials{
		"host":     "127.0.0.1",
		"database": "bench",
		"user":     "bench",
		"password": "bench",
	})
	require.NoError(t, err)
	assert.Equal(t, VendorPostgres, conn.Vendor())

	session, ok := conn.(*Session)
	require.True(t, ok)
	assert.False(t, session.isConnected())
	assert.NoError(t, conn.Close())
}

func TestCanonicalVendor(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"google", VendorBigQuery},
		{"BigQuery", VendorBigQuery},
		{" snowflake ", VendorSnowflake},
		{"postgresql", VendorPostgres},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.out, CanonicalVendor(tt.in))
		})
	}
}

func TestVendors_Sorted(t *testing.T) {
	infos := Vendors()
	require.NotEmpty(t, infos)
	for i := 1; i < len(infos); i++ {
		assert.Less(t, infos[i-1].Name, infos[i].Name)
	}

	fields, ok := RequiredFields("bigquery")
	require.True(t, ok)
	assert.Equal(t, []string{"project_id", "dataset", "key"}, fields)
}
