package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/okian/timefold/internal/domain/model"
)

// Postgres reads rows from a Postgres database. The pool is owned by the
// caller; Close it outside this adapter.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Rows selects every column of the requested table and translates each
// record: the entity identifier and knowledge date become fixed fields,
// numeric columns become quantities, and textual columns become
// attributes. Null cells are skipped.
func (p *Postgres) Rows(ctx context.Context, req Request) ([]model.Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s", req.From) //nolint:gosec // table names come from operator config
	sqlRows, err := p.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer sqlRows.Close()

	var out []model.Row
	for sqlRows.Next() {
		record := map[string]interface{}{}
		if err := sqlRows.MapScan(record); err != nil {
			return nil, classify(err)
		}
		row, err := translate(record, req.KnowledgeDateColumn)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := sqlRows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Choices runs a discovery query expected to return a single text column.
func (p *Postgres) Choices(ctx context.Context, query string) ([]string, error) {
	var choices []string
	if err := p.db.SelectContext(ctx, &choices, query); err != nil {
		return nil, classify(err)
	}
	return choices, nil
}

func translate(record map[string]interface{}, knowledgeCol string) (model.Row, error) {
	row := model.Row{
		Quantities: make(map[string]float64),
		Attributes: make(map[string]string),
	}
	for col, raw := range record {
		if raw == nil {
			continue
		}
		switch col {
		case model.EntityIDColumn:
			row.EntityID = asString(raw)
		case knowledgeCol:
			t, err := asTime(raw)
			if err != nil {
				return model.Row{}, fmt.Errorf("%w: column %s: %v", ErrBadRow, col, err)
			}
			row.KnowledgeDate = t
		default:
			if f, ok := asFloat(raw); ok {
				row.Quantities[col] = f
			} else {
				row.Attributes[col] = asString(raw)
			}
		}
	}
	if row.EntityID == "" {
		return model.Row{}, fmt.Errorf("%w: missing %s", ErrBadRow, model.EntityIDColumn)
	}
	if row.KnowledgeDate.IsZero() {
		return model.Row{}, fmt.Errorf("%w: missing %s", ErrBadRow, knowledgeCol)
	}
	return row, nil
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

func asTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return parseDate(t)
	case []byte:
		return parseDate(string(t))
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// classify wraps driver failures: connection-class errors are transient
// and worth retrying, everything else is a hard query failure.
func classify(err error) error {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "08" {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return fmt.Errorf("%w: %v", ErrQuery, err)
}
