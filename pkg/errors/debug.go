package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Diagnostic is the operator view of a failed request: the wrap chain plus
// whatever Postgres reported, so a unique-violation on order_items or a
// lock timeout in the stock decrement shows up in logs unredacted.
type Diagnostic struct {
	Message string
	Code    Code
	Chain   []string
	PG      *PGDetail
}

// PGDetail mirrors the fields shared by pgconn.PgError and pq.Error.
type PGDetail struct {
	SQLState   string
	Constraint string
	Table      string
	Column     string
	Detail     string
	Message    string
}

// Diagnose walks err and extracts its diagnostic view. Both pgx and lib/pq
// errors are recognised since the gorm and goose paths use different drivers.
func Diagnose(err error) Diagnostic {
	if err == nil {
		return Diagnostic{}
	}
	diag := Diagnostic{Message: err.Error()}
	if typed := As(err); typed != nil {
		diag.Code = typed.Code()
		// the code has its own field; a bare coded error logs just its message
		if error(typed) == err && typed.cause == nil {
			diag.Message = typed.Message()
		}
	}
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		diag.Chain = append(diag.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case stdErrors.As(err, &pgxErr):
		diag.PG = &PGDetail{
			SQLState:   pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	case stdErrors.As(err, &pqErr):
		diag.PG = &PGDetail{
			SQLState:   string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return diag
}

// Fields flattens the diagnostic into log fields, leaving out empty ones.
func (d Diagnostic) Fields() map[string]any {
	fields := map[string]any{"error": d.Message}
	if d.Code != "" {
		fields["error_code"] = string(d.Code)
	}
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	if d.PG == nil {
		return fields
	}
	for key, value := range map[string]string{
		"pg_code":       d.PG.SQLState,
		"pg_constraint": d.PG.Constraint,
		"pg_table":      d.PG.Table,
		"pg_column":     d.PG.Column,
		"pg_detail":     d.PG.Detail,
		"pg_message":    d.PG.Message,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
