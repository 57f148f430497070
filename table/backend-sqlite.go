/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS records (
	key BLOB PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID`

// SqliteBackend stores records in a SQLite table. BLOB keys compare with
// memcmp, which is record order.
type SqliteBackend struct {
	db *sql.DB
}

// NewSqliteBackend opens or creates the database at path.
func NewSqliteBackend(path string) (*SqliteBackend, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite database %s", path)
	}
	if _, err = db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create sqlite schema")
	}
	return &SqliteBackend{db: db}, nil
}

func (s *SqliteBackend) Put(key []byte, value []byte) (bool, error) {
	res, err := s.db.Exec("INSERT OR IGNORE INTO records (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SqliteBackend) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM records WHERE key=?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return value, err
}

func (s *SqliteBackend) Delete(keys ...[]byte) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	removed := 0
	for _, key := range keys {
		res, err := tx.Exec("DELETE FROM records WHERE key=?", key)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		removed += int(n)
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *SqliteBackend) Scan(prefix []byte, reverse bool, fn ScanFunc) error {
	order := "ASC"
	if reverse {
		order = "DESC"
	}

	// The empty blob sorts before every key, so a nil prefix still needs a bound
	lower := prefix
	if lower == nil {
		lower = []byte{}
	}

	var rows *sql.Rows
	var err error
	if upper := prefixSuccessor(prefix); upper != nil {
		rows, err = s.db.Query("SELECT key, value FROM records WHERE key >= ? AND key < ? ORDER BY key "+order, lower, upper)
	} else {
		rows, err = s.db.Query("SELECT key, value FROM records WHERE key >= ? ORDER BY key "+order, lower)
	}
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value []byte
		if err = rows.Scan(&key, &value); err != nil {
			return err
		}
		more, err := fn(key, value)
		if err != nil || !more {
			return err
		}
	}
	return rows.Err()
}

func (s *SqliteBackend) Len() (n int, err error) {
	err = s.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&n)
	return
}

func (s *SqliteBackend) Close() error {
	return s.db.Close()
}
