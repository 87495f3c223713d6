/*
cleanupd - mail transfer agent queue-cleanup service.
Copyright (C) 2024 cleanupd contributors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/qfile/cleanupd/framework/config"
	"github.com/qfile/cleanupd/framework/exterrors"
	"github.com/qfile/cleanupd/framework/log"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const sqlModName = "table.sql"

// SQL looks keys up with a prepared statement against any database/sql
// driver registered in the process (Postgres, MySQL, SQLite).
type SQL struct {
	db     *sql.DB
	lookup *sql.Stmt

	// log reports lookup failures through the zap bridge (Logger.Zap)
	// rather than Logger's own methods, since this is the one subsystem
	// built on a third-party component (database/sql drivers) that
	// speaks the zap ecosystem's structured-field idiom.
	log log.Logger
}

// NewSQLFromConfig opens the database and prepares the lookup statement
// from "driver", "dsn", "lookup" and optional "init" directives.
func NewSQLFromConfig(cfg *config.Map) (*SQL, error) {
	var (
		driver      string
		initQueries []string
		dsnParts    []string
		lookupQuery string
		debug       bool
	)
	cfg.StringList("init", false, false, nil, &initQueries)
	cfg.String("driver", false, true, "", &driver)
	cfg.StringList("dsn", false, true, nil, &dsnParts)
	cfg.String("lookup", false, true, "", &lookupQuery)
	cfg.Bool("debug", true, false, &debug)
	if _, err := cfg.Process(); err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, strings.Join(dsnParts, " "))
	if err != nil {
		return nil, fmt.Errorf("table.sql: failed to open db: %w", err)
	}

	s := &SQL{db: db, log: log.Logger{Name: sqlModName, Debug: debug}}

	for _, q := range initQueries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("table.sql: init query failed: %w", err)
		}
	}

	s.lookup, err = db.Prepare(lookupQuery)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("table.sql: failed to prepare lookup query: %w", err)
	}

	return s, nil
}

func (s *SQL) Close() error {
	s.lookup.Close()
	return s.db.Close()
}

// Lookup runs the prepared statement. A query failure other than "no rows"
// is classified as temporary: it is usually a dropped connection or a
// momentarily unreachable database, not a property of the key being looked
// up, so a caller may reasonably retry.
func (s *SQL) Lookup(ctx context.Context, key string) (string, bool, error) {
	var repl string
	row := s.lookup.QueryRowContext(ctx, key)
	if err := row.Scan(&repl); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		s.log.Zap().Sugar().Errorw("lookup failed", "key", key, "error", err)
		return "", false, exterrors.WithTemporary(err, true)
	}
	return repl, true, nil
}
