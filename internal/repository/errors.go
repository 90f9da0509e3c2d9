// Package repository holds the MySQL data access types and the error values
// shared between them. Handlers and the booking core tell failures apart by
// these sentinels rather than by driver codes.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup yields no rows.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by UserRepo.Create for a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenInvalid is returned for an unknown, revoked or expired refresh
// token.
var ErrTokenInvalid = errors.New("refresh token invalid")

// MySQL server error numbers the repositories react to.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlCode(err) == mysqlDuplicateEntry }

// isContention reports whether the server aborted the statement because
// another transaction holds the rows.
func isContention(err error) bool {
	switch mysqlCode(err) {
	case mysqlDeadlock, mysqlLockWaitTimeout:
		return true
	}
	return false
}
