package extlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrConfig marks problems detected before any I/O: source disabled, driver
// missing, connection parameters absent, or a non-positive limit.
var ErrConfig = errors.New("external log source misconfigured")

// SourceError wraps a connectivity failure against the external database.
// Op is "connect" or "query".
type SourceError struct {
	Op  string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("external log source: %s failed: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SourceConfig describes the read-only MSSQL database holding raw turnstile
// movements.
type SourceConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	Table        string
	DefaultLimit int
}

// movementColumns is the fixed projection of the external table, ordered to
// match Record's fields.
var movementColumns = []string{
	"Id_ES",
	"Tipo",
	"Origen",
	"Id_Tarjeta",
	"Id_Cliente",
	"Fecha",
	"Resultado",
	"Id_Controlador",
	"Id_Acceso",
	"Observacion",
	"tipo_reg",
	"Id_CD_Motivo",
	"Flag_Permite_Paso",
	"Fecha_Paso_Permitido",
	"Id_Controlador_Paso_Permitido",
}

// Fetcher reads the most recent movement rows from the external source. Each
// FetchLatest call opens and closes its own connection; the source is polled
// rarely enough that pooling buys nothing.
type Fetcher struct {
	cfg SourceConfig
}

// NewFetcher validates the configuration up front so callers fail fast
// instead of discovering a dead integration on the first poll.
func NewFetcher(cfg SourceConfig) (*Fetcher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("%w: source is disabled", ErrConfig)
	}
	if !driverRegistered("sqlserver") {
		return nil, fmt.Errorf("%w: sqlserver driver is not registered", ErrConfig)
	}
	var missing []string
	for _, p := range []struct{ name, val string }{
		{"host", cfg.Host},
		{"database", cfg.Database},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"table", cfg.Table},
	} {
		if strings.TrimSpace(p.val) == "" {
			missing = append(missing, p.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing connection parameters: %s", ErrConfig, strings.Join(missing, ", "))
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	return &Fetcher{cfg: cfg}, nil
}

// DefaultLimit is the row cap used when the caller does not choose one.
func (f *Fetcher) DefaultLimit() int { return f.cfg.DefaultLimit }

func driverRegistered(name string) bool {
	for _, d := range sql.Drivers() {
		if d == name {
			return true
		}
	}
	return false
}

func (f *Fetcher) dsn() string {
	host := f.cfg.Host
	if f.cfg.Port > 0 {
		host = fmt.Sprintf("%s:%d", f.cfg.Host, f.cfg.Port)
	}
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(f.cfg.User, f.cfg.Password),
		Host:   host,
	}
	q := url.Values{}
	q.Set("database", f.cfg.Database)
	q.Set("TrustServerCertificate", "true")
	u.RawQuery = q.Encode()
	return u.String()
}

func (f *Fetcher) buildQuery(limit int) string {
	return fmt.Sprintf(
		"SELECT TOP %d %s FROM %s ORDER BY Fecha DESC",
		limit,
		strings.Join(movementColumns, ", "),
		f.cfg.Table,
	)
}

// FetchLatest returns up to limit movement rows, most recent first. A
// non-positive limit is rejected as ErrConfig before any connection attempt.
func (f *Fetcher) FetchLatest(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be a positive integer, got %d", ErrConfig, limit)
	}

	db, err := sql.Open("sqlserver", f.dsn())
	if err != nil {
		return nil, &SourceError{Op: "connect", Err: err}
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, &SourceError{Op: "connect", Err: err}
	}

	rows, err := db.QueryContext(ctx, f.buildQuery(limit))
	if err != nil {
		return nil, &SourceError{Op: "query", Err: err}
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &SourceError{Op: "query", Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &SourceError{Op: "query", Err: err}
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		rec              Record
		externalID       sql.NullInt64
		movementType     sql.NullString
		origin           sql.NullString
		cardID           sql.NullString
		clientID         sql.NullInt64
		occurredAt       sql.NullTime
		result           sql.NullString
		controllerID     sql.NullInt64
		accessID         sql.NullInt64
		observation      sql.NullString
		recordKind       sql.NullString
		reasonCode       sql.NullInt64
		passFlag         sql.NullString
		passPermittedAt  sql.NullTime
		passControllerID sql.NullInt64
	)
	err := rows.Scan(
		&externalID,
		&movementType,
		&origin,
		&cardID,
		&clientID,
		&occurredAt,
		&result,
		&controllerID,
		&accessID,
		&observation,
		&recordKind,
		&reasonCode,
		&passFlag,
		&passPermittedAt,
		&passControllerID,
	)
	if err != nil {
		return Record{}, err
	}
	if externalID.Valid {
		rec.ExternalID = &externalID.Int64
	}
	rec.MovementType = movementType.String
	rec.Origin = origin.String
	rec.CardID = cardID.String
	if clientID.Valid {
		rec.ClientID = &clientID.Int64
	}
	rec.OccurredAt = textTime(occurredAt)
	rec.Result = result.String
	if controllerID.Valid {
		rec.ControllerID = &controllerID.Int64
	}
	if accessID.Valid {
		rec.AccessID = &accessID.Int64
	}
	rec.Observation = observation.String
	rec.RecordKind = recordKind.String
	if reasonCode.Valid {
		rec.ReasonCode = &reasonCode.Int64
	}
	rec.PassFlag = passFlag.String
	rec.PassPermittedAt = textTime(passPermittedAt)
	if passControllerID.Valid {
		rec.PassControllerID = &passControllerID.Int64
	}
	return rec, nil
}

func textTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(time.RFC3339)
}
