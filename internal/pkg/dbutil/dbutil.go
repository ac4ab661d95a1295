package dbutil

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	pgUniqueViolation = "23505"
	pgDuplicateTable  = "42P07"
	pgDuplicateObject = "42710"
)

// gendry renders _limit as "LIMIT offset, count"
var limitRegex = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

// Finalize rewrites a gendry statement for postgres: the MySQL limit form
// becomes LIMIT/OFFSET and placeholders become $n.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	if loc := limitRegex.FindStringIndex(query); loc != nil {
		at := strings.Count(query[:loc[0]], "?")
		if at+1 < len(args) {
			args[at], args[at+1] = args[at+1], args[at]
			query = limitRegex.ReplaceAllString(query, "LIMIT ? OFFSET ?")
		}
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}

func pgCode(err error) string {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return string(pgErr.Code)
	}
	return ""
}

func IsConflict(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

// IsAlreadyExists reports a CREATE of a table, index or constraint that is
// already there.
func IsAlreadyExists(err error) bool {
	switch pgCode(err) {
	case pgDuplicateTable, pgDuplicateObject:
		return true
	}
	return false
}
