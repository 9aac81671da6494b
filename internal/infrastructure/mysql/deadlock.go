package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const (
	errLockDeadlock    = 1213
	errLockWaitTimeout = 1205
)

// IsDeadlock reports whether err is a MySQL deadlock or lock wait timeout, both safe to retry.
func IsDeadlock(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == errLockDeadlock || mysqlErr.Number == errLockWaitTimeout
	}
	return false
}
