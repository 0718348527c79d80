package store

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/microsoft/go-mssqldb/azuread"
)

// Backend names accepted in Settings.Backend.
const (
	BackendSQLServer = "sqlserver"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
)

// Driver names registered with database/sql.
const (
	driverSQLServer = azuread.DriverName
	driverPostgres  = "pgx"
	driverSQLite    = "sqlite3"
)

const (
	// sqlServerPort is the fixed TDS port of Fabric SQL endpoints.
	sqlServerPort = 1433

	fedAuthServicePrincipal = "ActiveDirectoryServicePrincipal"
)

func init() {
	// sqlx does not know the azuread driver's placeholder style
	sqlx.BindDriver(driverSQLServer, sqlx.AT)
}

// Settings carries everything a DriverFactory needs to reach a database.
// Which fields are required depends on Backend.
type Settings struct {
	Backend string

	// SQL Server / Fabric, service-principal authentication
	Server       string
	Database     string
	ClientID     string
	ClientSecret string
	TenantID     string

	PostgresDSN string
	SQLitePath  string
}

// ConnectionFactory hands out a ready-to-query handle.
// The caller owns the handle and must close it.
type ConnectionFactory interface {
	Connect(ctx context.Context) (*sqlx.DB, error)
}

// DriverFactory opens a fresh single-connection handle on every Connect.
// Nothing is pooled across calls.
type DriverFactory struct {
	settings Settings
}

// NewDriverFactory creates a factory for the given settings.
// Settings are not checked until Connect.
func NewDriverFactory(s Settings) *DriverFactory {
	return &DriverFactory{settings: s}
}

// Backend reports the configured backend, defaulting to SQL Server.
func (f *DriverFactory) Backend() string {
	if f.settings.Backend == "" {
		return BackendSQLServer
	}
	return f.settings.Backend
}

// Connect opens and pings a handle. Missing settings and handshake
// failures are both reported as *ConnectivityError.
func (f *DriverFactory) Connect(ctx context.Context) (*sqlx.DB, error) {
	driver, dsn, err := f.dataSource()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, &ConnectivityError{Err: fmt.Errorf("failed to open database: %w", err)}
	}

	// One request, one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectivityError{Err: fmt.Errorf("failed to connect to database: %w", err)}
	}

	if driver == driverSQLite {
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, &ConnectivityError{Err: fmt.Errorf("failed to apply pragmas: %w", err)}
		}
	}

	return db, nil
}

// dataSource resolves the driver name and DSN for the configured backend.
func (f *DriverFactory) dataSource() (string, string, error) {
	s := f.settings
	switch f.Backend() {
	case BackendSQLServer:
		if missing := missingSettings(map[string]string{
			"FABRIC_SQL_SERVER":   s.Server,
			"FABRIC_SQL_DATABASE": s.Database,
			"AZURE_CLIENT_ID":     s.ClientID,
			"AZURE_CLIENT_SECRET": s.ClientSecret,
		}); len(missing) > 0 {
			return "", "", &ConnectivityError{Missing: missing}
		}
		return driverSQLServer, sqlServerDSN(s), nil

	case BackendPostgres:
		if missing := missingSettings(map[string]string{"POSTGRES_DSN": s.PostgresDSN}); len(missing) > 0 {
			return "", "", &ConnectivityError{Missing: missing}
		}
		return driverPostgres, s.PostgresDSN, nil

	case BackendSQLite:
		if missing := missingSettings(map[string]string{"SQLITE_PATH": s.SQLitePath}); len(missing) > 0 {
			return "", "", &ConnectivityError{Missing: missing}
		}
		return driverSQLite, s.SQLitePath, nil

	default:
		return "", "", &ConnectivityError{Err: fmt.Errorf("unknown database backend %q", s.Backend)}
	}
}

// sqlServerDSN builds an azuread URL using service-principal auth.
// The user name is "<client id>@<tenant id>" when a tenant is set.
func sqlServerDSN(s Settings) string {
	user := s.ClientID
	if s.TenantID != "" {
		user = s.ClientID + "@" + s.TenantID
	}

	// Azure portals hand out "tcp:<host>,<port>"
	host := strings.TrimPrefix(strings.TrimSpace(s.Server), "tcp:")
	host = strings.Replace(host, ",", ":", 1)
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, strconv.Itoa(sqlServerPort))
	}

	query := url.Values{}
	query.Set("database", s.Database)
	query.Set("fedauth", fedAuthServicePrincipal)
	query.Set("encrypt", "true")
	query.Set("TrustServerCertificate", "false")

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(user, s.ClientSecret),
		Host:     host,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// missingSettings returns the sorted names whose value is empty.
func missingSettings(values map[string]string) []string {
	var missing []string
	for name, v := range values {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	return missing
}

// applyPragmas makes SQLite handles read-only and tolerant of a
// concurrent writer.
func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA query_only = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
