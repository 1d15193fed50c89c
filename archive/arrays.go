package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cartonlabs/carton/array"
)

// arrayTable is the store-internal table holding one row per array record.
const arrayTable = "__carton_arrays__"

// arrayStore is the columnar-array lane of an archive. Each array item is a
// single named record: dtype, shape, and a (possibly compressed) element
// buffer.
type arrayStore struct {
	db *sql.DB
}

func openArrayStore(path string, readonly bool) (*arrayStore, error) {
	dsn := path
	if readonly {
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open array store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open array store: %w", err)
	}
	return &arrayStore{db: db}, nil
}

func (s *arrayStore) Close() error { return s.db.Close() }

func (s *arrayStore) ensure() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS "` + arrayTable + `" (
		name TEXT PRIMARY KEY,
		dtype TEXT NOT NULL,
		shape TEXT NOT NULL,
		complib TEXT NOT NULL,
		checksum INTEGER,
		data BLOB NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create array table: %w", err)
	}
	return nil
}

// put writes one named array record, overwriting any prior record of the
// same name.
func (s *arrayStore) put(name string, a *array.Array, opts Options) error {
	raw := a.Encode()
	blob, err := compress(opts.CompLib, opts.CompLevel, raw)
	if err != nil {
		return fmt.Errorf("array %q: %w", name, err)
	}
	shape, err := json.Marshal(a.Shape())
	if err != nil {
		return fmt.Errorf("array %q: marshal shape: %w", name, err)
	}
	var sum any
	if opts.Checksum {
		sum = checksum64(raw)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO "`+arrayTable+`" (name, dtype, shape, complib, checksum, data) VALUES (?, ?, ?, ?, ?, ?)`,
		name, a.DType().String(), string(shape), opts.CompLib, sum, blob,
	)
	if err != nil {
		return fmt.Errorf("write array %q: %w", name, err)
	}
	return nil
}

// walk visits every array record in name order. An archive with no array
// lane is treated as empty.
func (s *arrayStore) walk(fn func(name string, a *array.Array) error) error {
	ok, err := tableExists(s.db, arrayTable)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	rows, err := s.db.Query(`SELECT name, dtype, shape, complib, checksum, data FROM "` + arrayTable + `" ORDER BY name`)
	if err != nil {
		return fmt.Errorf("scan array store: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name, dtypeName, shapeJSON, complib string
			sum                                 sql.NullInt64
			blob                                []byte
		)
		if err := rows.Scan(&name, &dtypeName, &shapeJSON, &complib, &sum, &blob); err != nil {
			return fmt.Errorf("scan array record: %w", err)
		}
		dtype, err := array.ParseDType(dtypeName)
		if err != nil {
			return fmt.Errorf("array %q: %w", name, err)
		}
		var shape []int
		if err := json.Unmarshal([]byte(shapeJSON), &shape); err != nil {
			return fmt.Errorf("array %q: unmarshal shape: %w", name, err)
		}
		raw, err := decompress(complib, blob)
		if err != nil {
			return fmt.Errorf("array %q: %w", name, err)
		}
		if sum.Valid && checksum64(raw) != sum.Int64 {
			return fmt.Errorf("array %q: checksum mismatch", name)
		}
		a, err := array.Decode(dtype, shape, raw)
		if err != nil {
			return fmt.Errorf("array %q: %w", name, err)
		}
		if err := fn(name, a); err != nil {
			return err
		}
	}
	return rows.Err()
}

func tableExists(db *sql.DB, name string) (bool, error) {
	var found string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("inspect store: %w", err)
	}
	return true, nil
}
