// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package chromium

import (
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

// chromeEpoch is the zero point of Chromium timestamps: microseconds
// since 1601-01-01 UTC (the Windows FILETIME epoch).
var chromeEpoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

// chromeMicrosToTime converts a Chromium timestamp to a time.Time.
// Zero stays the zero time so callers can detect missing values.
func chromeMicrosToTime(micros int64) time.Time {
	if micros == 0 {
		return time.Time{}
	}
	return chromeEpoch.Add(time.Duration(micros) * time.Microsecond)
}

// historyStore reads visit records from the History SQLite database.
// A single connection suffices: each profile handle belongs to exactly
// one invocation.
type historyStore struct {
	conn *sqlite.Conn
}

// openHistory opens the History database read-only. The profile
// folder must never be modified, so the database is opened with the
// no-mutation flags even though the browser may have left WAL
// leftovers behind.
func openHistory(path string) (*historyStore, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		return nil, fmt.Errorf("chromium: opening history database %s: %w", path, err)
	}
	return &historyStore{conn: conn}, nil
}

func (h *historyStore) close() error {
	return h.conn.Close()
}

const visitQuery = `
SELECT visits.id, urls.url, urls.title, visits.visit_time
FROM visits
INNER JOIN urls ON visits.url = urls.id
ORDER BY visits.id`

// iterate visits every history record in visit-id order.
func (h *historyStore) iterate(match profile.URLMatch, fn func(profile.HistoryRecord) error) error {
	err := sqlitex.Execute(h.conn, visitQuery, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			url := stmt.ColumnText(1)
			if match != nil && !match(url) {
				return nil
			}
			return fn(profile.HistoryRecord{
				URL:            url,
				Title:          stmt.ColumnText(2),
				VisitTime:      chromeMicrosToTime(stmt.ColumnInt64(3)),
				RecordLocation: fmt.Sprintf("History visits id=%d", stmt.ColumnInt64(0)),
			})
		},
	})
	if err != nil {
		return fmt.Errorf("chromium: reading history: %w", err)
	}
	return nil
}
