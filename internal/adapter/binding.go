package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbkiterrors "github.com/onyx-go/dbkit/internal/errors"
	"github.com/onyx-go/dbkit/internal/value"
)

// toDriverArg performs the single Value -> database/sql driver argument
// conversion the spec requires at the adapter boundary: every parameter
// bound into a query passes through exactly this function.
func toDriverArg(v value.Value) (any, error) {
	switch v.Kind {
	case value.KindNull:
		return nil, nil
	case value.KindBool:
		return v.Bool, nil
	case value.KindInt32:
		return v.Int32, nil
	case value.KindInt64:
		return v.Int64, nil
	case value.KindFloat64:
		return v.Float64, nil
	case value.KindDecimal:
		return v.Decimal, nil // textual, matches lib/pq and go-sql-driver/mysql's NUMERIC handling
	case value.KindString:
		return v.Str, nil
	case value.KindBytes:
		return v.Bytes, nil
	case value.KindUUID:
		return v.UUID.String(), nil
	case value.KindDateTime:
		return v.DateTime, nil
	case value.KindDate:
		return v.Date, nil
	case value.KindTime:
		return v.Time, nil
	case value.KindJSON:
		return v.String(), nil // canonical JSON text; drivers without native JSON bind it as text
	default:
		return nil, &dbkiterrors.TypeConversionError{
			FromType: v.Kind.String(), ToType: "driver arg",
			Err: fmt.Errorf("no binding for this value kind"),
		}
	}
}

// toDriverArgs converts a slice of Values in order, the shape
// database/sql's variadic args expect.
func toDriverArgs(values []value.Value) ([]any, error) {
	args := make([]any, len(values))
	for i, v := range values {
		a, err := toDriverArg(v)
		if err != nil {
			return nil, err
		}
		args[i] = a
	}
	return args, nil
}

// fromDriverValue converts a value scanned out of database/sql (always one
// of the limited set sql.Scan produces: nil, bool, int64, float64, string,
// []byte, time.Time) back into a Value. UUID columns surface as string or
// []byte from the driver and are returned as KindString; callers that know
// a column is a UUID column should parse it explicitly with uuid.Parse.
func fromDriverValue(raw any) (value.Value, error) {
	switch t := raw.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case int64:
		return value.Int64(t), nil
	case float64:
		return value.Float64(t), nil
	case string:
		return value.String(t), nil
	case []byte:
		return value.Bytes(t), nil
	case time.Time:
		return value.DateTime(t), nil
	default:
		return value.Value{}, &dbkiterrors.TypeConversionError{
			FromType: fmt.Sprintf("%T", raw), ToType: "value.Value",
			Err: fmt.Errorf("unsupported driver value type"),
		}
	}
}

// ExecValues runs query with vals bound as driver parameters through c's
// connection, converting each Value at this one boundary.
func (c *Connection) ExecValues(ctx context.Context, query string, vals ...value.Value) (sql.Result, error) {
	args, err := toDriverArgs(vals)
	if err != nil {
		return nil, err
	}
	res, err := c.Conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryError(ctx, err)
	}
	return res, nil
}

// wrapQueryError classifies a database/sql failure into the QueryError
// taxonomy of §7, distinguishing a caller-cancelled context from any
// other execution failure.
func wrapQueryError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &dbkiterrors.QueryError{Kind: dbkiterrors.QueryCancelled, Err: err}
	}
	return &dbkiterrors.QueryError{Kind: dbkiterrors.QueryExecutionFailed, Err: err}
}

// QueryValues runs query with vals bound as driver parameters and converts
// every column of every row back into a Value via fromDriverValue.
func (c *Connection) QueryValues(ctx context.Context, query string, vals ...value.Value) ([][]value.Value, error) {
	args, err := toDriverArgs(vals)
	if err != nil {
		return nil, err
	}
	rows, err := c.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryError(ctx, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out [][]value.Value
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]value.Value, len(cols))
		for i, r := range raw {
			v, err := fromDriverValue(r)
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
