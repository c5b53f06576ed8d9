// Package sqltest provides in-memory pgx rows and a scripted SQL executor for
// unit tests of code written against infra.SQLExecutor.
package sqltest

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Row is a pgx.Row that scans a fixed set of values or returns an error.
type Row struct {
	values []any
	err    error
}

// NewRow returns a row that assigns values to the scan destinations in order.
func NewRow(values ...any) Row {
	return Row{values: values}
}

// ErrRow returns a row whose Scan fails with err.
func ErrRow(err error) Row {
	return Row{err: err}
}

// NoRow is a row reporting pgx.ErrNoRows.
func NoRow() Row {
	return Row{err: pgx.ErrNoRows}
}

func (r Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

// Rows is an in-memory pgx.Rows.
type Rows struct {
	data   [][]any
	idx    int
	err    error
	closed bool
}

// NewRows builds a result set, one slice of values per row.
func NewRows(data ...[]any) *Rows {
	return &Rows{data: data, idx: -1}
}

func (r *Rows) Close()     { r.closed = true }
func (r *Rows) Err() error { return r.err }

func (r *Rows) Next() bool {
	if r.closed || r.err != nil {
		return false
	}
	r.idx++
	if r.idx >= len(r.data) {
		r.closed = true
		return false
	}
	return true
}

func (r *Rows) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.data) {
		return fmt.Errorf("sqltest: scan called without a current row")
	}
	return assign(r.data[r.idx], dest)
}

func (r *Rows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *Rows) Conn() *pgx.Conn { return nil }

func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *Rows) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.data) {
		return nil, fmt.Errorf("sqltest: no current row")
	}
	return r.data[r.idx], nil
}

func (r *Rows) RawValues() [][]byte { return nil }

// Call records one statement sent to the Executor.
type Call struct {
	Query string
	Args  []any
}

// Executor is a scripted infra.SQLExecutor. Responses are looked up by a
// substring of the query, either the sqlinline constant or its marker uuid.
type Executor struct {
	mu    sync.Mutex
	rows  map[string][]pgx.Row
	sets  map[string][]*Rows
	execs map[string][]ExecResult
	Calls []Call
}

// ExecResult is the scripted outcome of one Exec.
type ExecResult struct {
	RowsAffected int64
	Err          error
}

func NewExecutor() *Executor {
	return &Executor{
		rows:  map[string][]pgx.Row{},
		sets:  map[string][]*Rows{},
		execs: map[string][]ExecResult{},
	}
}

// OnQueryRow queues rows returned by QueryRow for queries containing key.
func (e *Executor) OnQueryRow(key string, rows ...pgx.Row) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows[key] = append(e.rows[key], rows...)
	return e
}

// OnQuery queues result sets returned by Query for queries containing key.
func (e *Executor) OnQuery(key string, sets ...*Rows) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sets[key] = append(e.sets[key], sets...)
	return e
}

// OnExec queues results returned by Exec for queries containing key. The
// last result of a queue is reused for further calls.
func (e *Executor) OnExec(key string, results ...ExecResult) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.execs[key] = append(e.execs[key], results...)
	return e
}

func (e *Executor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls = append(e.Calls, Call{Query: query, Args: args})
	for key, queue := range e.execs {
		if strings.Contains(query, key) && len(queue) > 0 {
			res := queue[0]
			if len(queue) > 1 {
				e.execs[key] = queue[1:]
			}
			if res.Err != nil {
				return pgconn.CommandTag{}, res.Err
			}
			return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", res.RowsAffected)), nil
		}
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (e *Executor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls = append(e.Calls, Call{Query: query, Args: args})
	for key, queue := range e.rows {
		if strings.Contains(query, key) && len(queue) > 0 {
			e.rows[key] = queue[1:]
			return queue[0]
		}
	}
	return NoRow()
}

func (e *Executor) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls = append(e.Calls, Call{Query: query, Args: args})
	for key, queue := range e.sets {
		if strings.Contains(query, key) && len(queue) > 0 {
			e.sets[key] = queue[1:]
			return queue[0], nil
		}
	}
	return NewRows(), nil
}

// CallsTo returns the recorded calls whose query contains key.
func (e *Executor) CallsTo(key string) []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Call
	for _, c := range e.Calls {
		if strings.Contains(c.Query, key) {
			out = append(out, c)
		}
	}
	return out
}

func assign(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("sqltest: scan expects %d destinations, row has %d values", len(dest), len(values))
	}
	for i, d := range dest {
		if d == nil {
			continue
		}
		target := reflect.ValueOf(d)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("sqltest: destination %d is not a pointer", i)
		}
		if err := setValue(target.Elem(), values[i]); err != nil {
			return fmt.Errorf("sqltest: column %d: %w", i, err)
		}
	}
	return nil
}

func setValue(target reflect.Value, v any) error {
	if v == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	switch {
	case src.Type().AssignableTo(target.Type()):
		target.Set(src)
	case target.Kind() == reflect.Pointer && src.Type().AssignableTo(target.Type().Elem()):
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(src)
		target.Set(p)
	case src.Kind() == reflect.Pointer && !src.IsNil() && src.Elem().Type().AssignableTo(target.Type()):
		target.Set(src.Elem())
	case src.Type().ConvertibleTo(target.Type()):
		target.Set(src.Convert(target.Type()))
	default:
		return fmt.Errorf("cannot assign %s to %s", src.Type(), target.Type())
	}
	return nil
}
