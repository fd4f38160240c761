package connectors

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hyperterse/hyperbench/core/domain"
	"github.com/hyperterse/hyperbench/core/domain/interfaces"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// Vendor names accepted in credentials and on the command line
const (
	VendorFirebolt   = "firebolt"
	VendorSnowflake  = "snowflake"
	VendorRedshift   = "redshift"
	VendorBigQuery   = "google"
	VendorPostgres   = "postgres"
	VendorMySQL      = "mysql"
	VendorClickHouse = "clickhouse"
	VendorDuckDB     = "duckdb"
	VendorSQLite     = "sqlite"
	VendorLibSQL     = "libsql"
	VendorRedis      = "redis"
	VendorMongoDB    = "mongodb"
	VendorFake       = "fake"
)

// vendorAliases maps alternative spellings to canonical vendor names
var vendorAliases = map[string]string{
	"bigquery":   VendorBigQuery,
	"postgresql": VendorPostgres,
	"turso":      VendorLibSQL,
	"mongo":      VendorMongoDB,
}

type vendorSpec struct {
	required    []string
	description string
	build       func(domain.Credentials) *Session
}

var catalogue = map[string]vendorSpec{
	VendorFirebolt: {
		required:    []string{"account_name", "database", "engine_name", "auth"},
		description: "Firebolt (service account auth)",
		build:       NewFireboltConnector,
	},
	VendorSnowflake: {
		required:    []string{"account", "user", "password"},
		description: "Snowflake",
		build:       NewSnowflakeConnector,
	},
	VendorRedshift: {
		required:    []string{"host", "database", "user", "password"},
		description: "Amazon Redshift",
		build:       NewRedshiftConnector,
	},
	VendorBigQuery: {
		required:    []string{"project_id", "dataset", "key"},
		description: "Google BigQuery",
		build:       NewBigQueryConnector,
	},
	VendorPostgres: {
		required:    []string{"host", "database", "user", "password"},
		description: "PostgreSQL",
		build:       NewPostgresConnector,
	},
	VendorMySQL: {
		required:    []string{"host", "database", "user", "password"},
		description: "MySQL",
		build:       NewMySQLConnector,
	},
	VendorClickHouse: {
		required:    []string{"host", "database", "user"},
		description: "ClickHouse (native protocol)",
		build:       NewClickHouseConnector,
	},
	VendorDuckDB: {
		required:    []string{"path"},
		description: "DuckDB (embedded)",
		build:       NewDuckDBConnector,
	},
	VendorSQLite: {
		required:    []string{"path"},
		description: "SQLite (embedded)",
		build:       NewSQLiteConnector,
	},
	VendorLibSQL: {
		required:    []string{"url"},
		description: "libSQL / Turso",
		build:       NewLibSQLConnector,
	},
	VendorRedis: {
		required:    []string{"url"},
		description: "Redis (statements are commands)",
		build:       NewRedisConnector,
	},
	VendorMongoDB: {
		required:    []string{"uri"},
		description: "MongoDB (statements are JSON commands)",
		build:       NewMongoDBConnector,
	},
	VendorFake: {
		description: "In-memory connector for dry runs",
		build:       NewFakeConnector,
	},
}

// VendorInfo describes a supported vendor
type VendorInfo struct {
	Name           string
	Description    string
	RequiredFields []string
}

// Vendors lists every supported vendor sorted by name
func Vendors() []VendorInfo {
	infos := make([]VendorInfo, 0, len(catalogue))
	for name, spec := range catalogue {
		infos = append(infos, VendorInfo{
			Name:           name,
			Description:    spec.description,
			RequiredFields: slices.Clone(spec.required),
		})
	}
	slices.SortFunc(infos, func(a, b VendorInfo) int { return strings.Compare(a.Name, b.Name) })
	return infos
}

// CanonicalVendor lower-cases a vendor name and resolves aliases
func CanonicalVendor(vendor string) string {
	v := strings.ToLower(strings.TrimSpace(vendor))
	if alias, ok := vendorAliases[v]; ok {
		return alias
	}
	return v
}

// IsSupported reports whether vendor (or one of its aliases) is known
func IsSupported(vendor string) bool {
	_, ok := catalogue[CanonicalVendor(vendor)]
	return ok
}

// RequiredFields returns the credential keys a vendor must provide
func RequiredFields(vendor string) ([]string, bool) {
	spec, ok := catalogue[CanonicalVendor(vendor)]
	if !ok {
		return nil, false
	}
	return slices.Clone(spec.required), true
}

// ValidateCredentials checks creds against the vendor's required fields.
// The returned configuration error names exactly the missing keys.
func ValidateCredentials(vendor string, creds domain.Credentials) error {
	name := CanonicalVendor(vendor)
	spec, ok := catalogue[name]
	if !ok {
		return apperrors.NewConfigurationError(fmt.Sprintf("unsupported vendor '%s'", vendor))
	}

	var missing []string
	for _, field := range spec.required {
		if !creds.Has(field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("missing required credentials for %s: %s", name, strings.Join(missing, ", ")),
			missing...,
		)
	}

	if name == VendorFirebolt {
		auth, ok := creds.Map("auth")
		if !ok || !domain.Credentials(auth).Has("id") || !domain.Credentials(auth).Has("secret") {
			return apperrors.NewConfigurationError(
				"firebolt auth must be a mapping with 'id' and 'secret'",
				"auth",
			)
		}
	}
	return nil
}

// NewConnector validates creds and builds an idle connector. No network
// I/O happens until the connector is used.
func NewConnector(vendor string, creds domain.Credentials) (interfaces.Connector, error) {
	if err := ValidateCredentials(vendor, creds); err != nil {
		return nil, err
	}
	spec := catalogue[CanonicalVendor(vendor)]
	return spec.build(creds.Clone()), nil
}

// Factory builds connectors for every vendor in the catalogue
var Factory interfaces.ConnectorFactory = interfaces.ConnectorFactoryFunc(NewConnector)
