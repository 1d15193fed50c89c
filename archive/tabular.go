package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cartonlabs/carton/container"
	"github.com/cartonlabs/carton/frame"
)

const (
	// sentinelTable hosts special (scalar and simple composite) items as
	// attribute rows on a designated placeholder record.
	sentinelTable = "__carton_storer__"
	// catalogTable records the store-internal layout of each tabular
	// record: its kind, index label, and column order.
	catalogTable = "__carton_catalog__"

	// Physical column names inside record tables. Item column names are
	// user-controlled, so the store's own columns carry reserved names.
	indexColumn = "__index__"
	valueColumn = "__value__"
)

// Special-item kind tags stored on the sentinel record.
const (
	specialStr     = "str"
	specialInt     = "int"
	specialFloat   = "float"
	specialComplex = "complex"
	specialList    = "list"
	specialDict    = "dict"
)

// tabularStore is the tabular lane of an archive: one SQL table per series
// or table item, plus the sentinel and catalog tables.
type tabularStore struct {
	db *sql.DB
}

func openTabularStore(path string, readonly bool) (*tabularStore, error) {
	dsn := path
	if readonly {
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open tabular store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open tabular store: %w", err)
	}
	return &tabularStore{db: db}, nil
}

func (s *tabularStore) Close() error { return s.db.Close() }

// ensureSentinel creates the sentinel and catalog tables when missing, so
// the placeholder record exists even for archives with no special items.
func (s *tabularStore) ensureSentinel() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS "` + sentinelTable + `" (
		name TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		value TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create sentinel record: %w", err)
	}
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS "` + catalogTable + `" (
		name TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		index_name TEXT NOT NULL,
		columns TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}
	return nil
}

func (s *tabularStore) hasSentinel() (bool, error) {
	return tableExists(s.db, sentinelTable)
}

// putSpecial attaches one special item as an attribute on the sentinel
// record. Scalar items always overwrite an existing attribute of the same
// name.
func (s *tabularStore) putSpecial(name string, it container.Item) error {
	kind, value, err := encodeSpecial(it)
	if err != nil {
		return fmt.Errorf("special %q: %w", name, err)
	}
	if _, err := s.db.Exec(
		`INSERT OR REPLACE INTO "`+sentinelTable+`" (name, kind, value) VALUES (?, ?, ?)`,
		name, kind, value,
	); err != nil {
		return fmt.Errorf("write special %q: %w", name, err)
	}
	return nil
}

// specials reads every attribute off the sentinel record.
func (s *tabularStore) specials() (map[string]container.Item, error) {
	rows, err := s.db.Query(`SELECT name, kind, value FROM "` + sentinelTable + `"`)
	if err != nil {
		return nil, fmt.Errorf("scan sentinel record: %w", err)
	}
	defer rows.Close()
	out := make(map[string]container.Item)
	for rows.Next() {
		var name, kind, value string
		if err := rows.Scan(&name, &kind, &value); err != nil {
			return nil, fmt.Errorf("scan special: %w", err)
		}
		it, err := decodeSpecial(kind, value)
		if err != nil {
			return nil, fmt.Errorf("special %q: %w", name, err)
		}
		out[name] = it
	}
	return out, rows.Err()
}

// putSeries writes a series item as its own named record.
func (s *tabularStore) putSeries(name string, sr *frame.Series, appendRows bool) error {
	quoted := quoteIdent(name)
	if !appendRows {
		if _, err := s.db.Exec(`DROP TABLE IF EXISTS ` + quoted); err != nil {
			return fmt.Errorf("rewrite series %q: %w", name, err)
		}
	}
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS ` + quoted + ` ("` + valueColumn + `")`); err != nil {
		return fmt.Errorf("create series %q: %w", name, err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("series %q: %w", name, err)
	}
	defer tx.Rollback()
	stmt, err := tx.Prepare(`INSERT INTO ` + quoted + ` ("` + valueColumn + `") VALUES (?)`)
	if err != nil {
		return fmt.Errorf("series %q: %w", name, err)
	}
	defer stmt.Close()
	for i := 0; i < sr.Len(); i++ {
		if _, err := stmt.Exec(sr.Value(i)); err != nil {
			return fmt.Errorf("series %q row %d: %w", name, i, err)
		}
	}
	if err := s.catalog(tx, name, "series", sr.Name(), nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("series %q: %w", name, err)
	}
	return nil
}

// putTable writes a table item as its own named record: the index in a
// reserved column, data columns in definition order.
func (s *tabularStore) putTable(name string, t *frame.Table, appendRows bool) error {
	quoted := quoteIdent(name)
	if !appendRows {
		if _, err := s.db.Exec(`DROP TABLE IF EXISTS ` + quoted); err != nil {
			return fmt.Errorf("rewrite table %q: %w", name, err)
		}
	}
	columns := t.Columns()
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, `"`+indexColumn+`"`)
	for _, col := range columns {
		defs = append(defs, quoteIdent(col))
	}
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS ` + quoted + ` (` + strings.Join(defs, ", ") + `)`); err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(defs)), ", ")
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("table %q: %w", name, err)
	}
	defer tx.Rollback()
	stmt, err := tx.Prepare(`INSERT INTO ` + quoted + ` VALUES (` + placeholders + `)`)
	if err != nil {
		return fmt.Errorf("table %q: %w", name, err)
	}
	defer stmt.Close()

	index := t.Index()
	cols := make([][]any, len(columns))
	for i, col := range columns {
		cols[i], _ = t.Column(col)
	}
	for row := 0; row < t.NumRows(); row++ {
		args := make([]any, 0, len(defs))
		args = append(args, index[row])
		for _, col := range cols {
			args = append(args, col[row])
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("table %q row %d: %w", name, row, err)
		}
	}
	if err := s.catalog(tx, name, "table", t.IndexName(), columns); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("table %q: %w", name, err)
	}
	return nil
}

func (s *tabularStore) catalog(tx *sql.Tx, name, kind, indexName string, columns []string) error {
	if columns == nil {
		columns = []string{}
	}
	cols, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("catalog %q: %w", name, err)
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO "`+catalogTable+`" (name, kind, index_name, columns) VALUES (?, ?, ?, ?)`,
		name, kind, indexName, string(cols),
	); err != nil {
		return fmt.Errorf("catalog %q: %w", name, err)
	}
	return nil
}

// recordNames lists every named tabular record in the store.
func (s *tabularStore) recordNames() ([]string, error) {
	ok, err := tableExists(s.db, catalogTable)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT name FROM "` + catalogTable + `" ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// readRecord reconstructs one named series or table record.
func (s *tabularStore) readRecord(name string) (container.Item, error) {
	var kind, indexName, colsJSON string
	err := s.db.QueryRow(
		`SELECT kind, index_name, columns FROM "`+catalogTable+`" WHERE name = ?`, name,
	).Scan(&kind, &indexName, &colsJSON)
	if err != nil {
		return container.Item{}, fmt.Errorf("record %q: %w", name, err)
	}
	switch kind {
	case "series":
		values, err := s.readColumn(name, valueColumn)
		if err != nil {
			return container.Item{}, err
		}
		return container.SeriesOf(frame.NewSeries(indexName, values...)), nil
	case "table":
		var columns []string
		if err := json.Unmarshal([]byte(colsJSON), &columns); err != nil {
			return container.Item{}, fmt.Errorf("record %q: unmarshal columns: %w", name, err)
		}
		return s.readTable(name, indexName, columns)
	}
	return container.Item{}, fmt.Errorf("record %q: unknown kind %q", name, kind)
}

func (s *tabularStore) readColumn(record, column string) ([]any, error) {
	rows, err := s.db.Query(`SELECT "` + column + `" FROM ` + quoteIdent(record) + ` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", record, err)
	}
	defer rows.Close()
	var values []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("record %q: %w", record, err)
		}
		values = append(values, normalizeCell(v))
	}
	return values, rows.Err()
}

func (s *tabularStore) readTable(name, indexName string, columns []string) (container.Item, error) {
	selected := make([]string, 0, len(columns)+1)
	selected = append(selected, `"`+indexColumn+`"`)
	for _, col := range columns {
		selected = append(selected, quoteIdent(col))
	}
	rows, err := s.db.Query(`SELECT ` + strings.Join(selected, ", ") + ` FROM ` + quoteIdent(name) + ` ORDER BY rowid`)
	if err != nil {
		return container.Item{}, fmt.Errorf("record %q: %w", name, err)
	}
	defer rows.Close()

	var index []any
	cols := make([][]any, len(columns))
	for rows.Next() {
		dest := make([]any, len(columns)+1)
		ptrs := make([]any, len(dest))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return container.Item{}, fmt.Errorf("record %q: %w", name, err)
		}
		index = append(index, normalizeCell(dest[0]))
		for i := range columns {
			cols[i] = append(cols[i], normalizeCell(dest[i+1]))
		}
	}
	if err := rows.Err(); err != nil {
		return container.Item{}, fmt.Errorf("record %q: %w", name, err)
	}
	framecols := make([]frame.Column, len(columns))
	for i, col := range columns {
		framecols[i] = frame.Column{Name: col, Values: cols[i]}
	}
	t, err := frame.NewTable(indexName, index, framecols...)
	if err != nil {
		return container.Item{}, fmt.Errorf("record %q: %w", name, err)
	}
	return container.TableOf(t), nil
}

// normalizeCell maps driver byte slices back to strings; everything else
// arrives as int64, float64, or nil.
func normalizeCell(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// quoteIdent quotes an item name for use as an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func encodeSpecial(it container.Item) (kind, value string, err error) {
	switch it.Kind() {
	case container.KindScalar:
		switch v := it.Value().(type) {
		case string:
			return specialStr, v, nil
		case int64:
			return specialInt, strconv.FormatInt(v, 10), nil
		case float64:
			return specialFloat, strconv.FormatFloat(v, 'g', -1, 64), nil
		case complex128:
			enc, err := json.Marshal(map[string]float64{"real": real(v), "imag": imag(v)})
			if err != nil {
				return "", "", err
			}
			return specialComplex, string(enc), nil
		}
	case container.KindList:
		enc, err := json.Marshal(it.Value())
		if err != nil {
			return "", "", err
		}
		return specialList, string(enc), nil
	case container.KindDict:
		enc, err := json.Marshal(it.Value())
		if err != nil {
			return "", "", err
		}
		return specialDict, string(enc), nil
	}
	return "", "", fmt.Errorf("kind %s is not a special item", it.Kind())
}

func decodeSpecial(kind, value string) (container.Item, error) {
	switch kind {
	case specialStr:
		return container.String(value), nil
	case specialInt:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return container.Item{}, fmt.Errorf("parse int: %w", err)
		}
		return container.Int(v), nil
	case specialFloat:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return container.Item{}, fmt.Errorf("parse float: %w", err)
		}
		return container.Float(v), nil
	case specialComplex:
		var parts map[string]float64
		if err := json.Unmarshal([]byte(value), &parts); err != nil {
			return container.Item{}, fmt.Errorf("parse complex: %w", err)
		}
		return container.Complex(complex(parts["real"], parts["imag"])), nil
	case specialList:
		var v []any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return container.Item{}, fmt.Errorf("parse list: %w", err)
		}
		return container.List(v...), nil
	case specialDict:
		var v map[string]any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return container.Item{}, fmt.Errorf("parse dict: %w", err)
		}
		return container.Dict(v), nil
	}
	return container.Item{}, fmt.Errorf("unknown special kind %q", kind)
}
