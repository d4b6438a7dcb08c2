package runtimelib

import (
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/lone-wolf-akela/foxlox/internal/value"
)

// handles stores open *sql.DB connections behind an int64 handle,
// since the value model (§3.6) names no opaque-pointer value kind and
// Non-goals exclude adding one just for this library.
var (
	handlesMu sync.Mutex
	handles   = map[int64]*sql.DB{}
	nextID    int64
)

func sqlLib() map[string]value.Value {
	return map[string]value.Value{
		"open": fn("fox.sql.open", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsString() {
				ctx.Raise("sql.open: path must be a string")
			}
			db, err := sql.Open("sqlite", args[0].AsString().Bytes)
			if err != nil {
				ctx.Raise("sql.open: %v", err)
			}
			handlesMu.Lock()
			nextID++
			id := nextID
			handles[id] = db
			handlesMu.Unlock()
			return value.Int(id)
		}),
		"exec": fn("fox.sql.exec", -1, func(ctx value.HostContext, args []value.Value) value.Value {
			db := lookupDB(ctx, args)
			query, sqlArgs := sqlQueryArgs(ctx, args)
			result, err := db.Exec(query, sqlArgs...)
			if err != nil {
				ctx.Raise("sql.exec: %v", err)
			}
			affected, _ := result.RowsAffected()
			return value.Int(affected)
		}),
		"query": fn("fox.sql.query", -1, func(ctx value.HostContext, args []value.Value) value.Value {
			db := lookupDB(ctx, args)
			query, sqlArgs := sqlQueryArgs(ctx, args)
			rows, err := db.Query(query, sqlArgs...)
			if err != nil {
				ctx.Raise("sql.query: %v", err)
			}
			defer rows.Close()

			cols, err := rows.Columns()
			if err != nil {
				ctx.Raise("sql.query: %v", err)
			}

			var out []value.Value
			for rows.Next() {
				scanTargets := make([]interface{}, len(cols))
				scanVals := make([]interface{}, len(cols))
				for i := range scanTargets {
					scanTargets[i] = &scanVals[i]
				}
				if err := rows.Scan(scanTargets...); err != nil {
					ctx.Raise("sql.query: %v", err)
				}
				row := ctx.NewDict()
				for i, col := range cols {
					row.Entries[value.FromObj(ctx.Intern(col))] = sqlValueToFox(ctx, scanVals[i])
				}
				out = append(out, value.FromObj(row))
			}
			return value.FromObj(ctx.NewTuple(out))
		}),
		"close": fn("fox.sql.close", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			db := lookupDB(ctx, args[:1])
			if err := db.Close(); err != nil {
				ctx.Raise("sql.close: %v", err)
			}
			handlesMu.Lock()
			delete(handles, args[0].AsInt())
			handlesMu.Unlock()
			return value.Nil()
		}),
	}
}

func lookupDB(ctx value.HostContext, args []value.Value) *sql.DB {
	if len(args) == 0 || !args[0].IsInt() {
		ctx.Raise("sql: first argument must be a handle returned by sql.open")
	}
	handlesMu.Lock()
	db, ok := handles[args[0].AsInt()]
	handlesMu.Unlock()
	if !ok {
		ctx.Raise("sql: no open connection for handle %d", args[0].AsInt())
	}
	return db
}

func sqlQueryArgs(ctx value.HostContext, args []value.Value) (string, []interface{}) {
	if len(args) < 2 || !args[1].IsString() {
		ctx.Raise("sql: second argument must be a query string")
	}
	query := args[1].AsString().Bytes
	sqlArgs := make([]interface{}, len(args)-2)
	for i, a := range args[2:] {
		sqlArgs[i] = toGo(a)
	}
	return query, sqlArgs
}

func sqlValueToFox(ctx value.HostContext, v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Nil()
	case int64:
		return value.Int(x)
	case float64:
		return value.Float(x)
	case []byte:
		return value.FromObj(ctx.Intern(string(x)))
	case string:
		return value.FromObj(ctx.Intern(x))
	case bool:
		return value.Bool(x)
	default:
		return value.Nil()
	}
}
