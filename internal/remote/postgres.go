package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Postgres is a Client over PostgreSQL tables. Every call is a single
// statement guarded by a circuit breaker.
type Postgres struct {
	db      *sql.DB
	breaker *gobreaker.CircuitBreaker
}

func NewPostgres(db *sql.DB, logger logrus.FieldLogger) *Postgres {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-postgres",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return &Postgres{db: db, breaker: breaker}
}

func (p *Postgres) From(table string) Table {
	return &postgresTable{client: p, name: table}
}

func (p *Postgres) Configured() bool { return true }

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) execute(fn func() (any, error)) (any, error) {
	return p.breaker.Execute(func() (interface{}, error) { return fn() })
}

type postgresTable struct {
	client *Postgres
	name   string
}

func quote(identifier string) (string, error) {
	if !identifierPattern.MatchString(identifier) {
		return "", fmt.Errorf("invalid identifier %q", identifier)
	}
	return pq.QuoteIdentifier(identifier), nil
}

// where renders filters as a conjunction of equality conditions with
// placeholders starting after offset.
func where(filters []Filter, offset int) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for i, f := range filters {
		col, err := quote(f.Column)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, fmt.Sprintf("%s = $%d", col, offset+i+1))
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// sortedColumns returns the keys of values in a stable order so statements
// are reproducible.
func sortedColumns(values map[string]any) []string {
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	return cols
}

func (t *postgresTable) Select(ctx context.Context, q Query) ([]json.RawMessage, error) {
	table, err := quote(t.name)
	if err != nil {
		return nil, err
	}
	clause, args, err := where(q.Filters, 0)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT to_jsonb(t) FROM %s AS t%s", table, clause)
	if q.OrderBy != "" {
		col, err := quote(q.OrderBy)
		if err != nil {
			return nil, err
		}
		query += " ORDER BY " + col
		if q.Desc {
			query += " DESC"
		}
	}

	out, err := t.client.execute(func() (any, error) {
		rows, err := t.client.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		return scanJSON(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.name, err)
	}
	return out.([]json.RawMessage), nil
}

func (t *postgresTable) Insert(ctx context.Context, values map[string]any) (json.RawMessage, error) {
	table, err := quote(t.name)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("insert %s: no values", t.name)
	}

	cols := sortedColumns(values)
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		if quoted[i], err = quote(col); err != nil {
			return nil, err
		}
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[col]
	}
	query := fmt.Sprintf(
		"INSERT INTO %s AS t (%s) VALUES (%s) RETURNING to_jsonb(t)",
		table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
	)

	out, err := t.client.execute(func() (any, error) {
		var row []byte
		if err := t.client.db.QueryRowContext(ctx, query, args...).Scan(&row); err != nil {
			return nil, err
		}
		return json.RawMessage(row), nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", t.name, err)
	}
	return out.(json.RawMessage), nil
}

func (t *postgresTable) Update(ctx context.Context, values map[string]any, filters ...Filter) ([]json.RawMessage, error) {
	table, err := quote(t.name)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("update %s: no values", t.name)
	}

	cols := sortedColumns(values)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(filters))
	for i, col := range cols {
		quoted, err := quote(col)
		if err != nil {
			return nil, err
		}
		sets[i] = fmt.Sprintf("%s = $%d", quoted, i+1)
		args = append(args, values[col])
	}
	clause, whereArgs, err := where(filters, len(cols))
	if err != nil {
		return nil, err
	}
	args = append(args, whereArgs...)
	query := fmt.Sprintf("UPDATE %s AS t SET %s%s RETURNING to_jsonb(t)", table, strings.Join(sets, ", "), clause)

	out, err := t.client.execute(func() (any, error) {
		rows, err := t.client.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		return scanJSON(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", t.name, err)
	}
	return out.([]json.RawMessage), nil
}

func (t *postgresTable) Delete(ctx context.Context, filters ...Filter) (int64, error) {
	table, err := quote(t.name)
	if err != nil {
		return 0, err
	}
	clause, args, err := where(filters, 0)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("DELETE FROM %s%s", table, clause)

	out, err := t.client.execute(func() (any, error) {
		res, err := t.client.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		return res.RowsAffected()
	})
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.name, err)
	}
	return out.(int64), nil
}

func scanJSON(rows *sql.Rows) ([]json.RawMessage, error) {
	defer rows.Close()

	out := make([]json.RawMessage, 0)
	for rows.Next() {
		var row []byte
		if err := rows.Scan(&row); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
