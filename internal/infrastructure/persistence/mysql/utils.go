package mysql

import (
	"errors"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/xiebiao/stocktrack/internal/domain/stock"
	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
)

// MySQL错误码
const (
	errDuplicateEntry   = 1062 // Duplicate entry 'xxx' for key 'yyy'
	errLockWaitTimeout  = 1205 // Lock wait timeout exceeded
	errDeadlockDetected = 1213 // Deadlock found when trying to get lock
)

func mysqlErrorNumber(err error) uint16 {
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number
	}
	return 0
}

// isDuplicateError 判断是否为MySQL唯一索引冲突错误
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || mysqlErrorNumber(err) == errDuplicateEntry {
		return true
	}
	// 兼容检查:错误信息包含"Duplicate entry"
	return strings.Contains(err.Error(), "Duplicate entry")
}

// isDuplicateOn 唯一索引冲突且发生在指定索引上
func isDuplicateOn(err error, index string) bool {
	return isDuplicateError(err) && strings.Contains(err.Error(), index)
}

// isConflictError 死锁或锁等待超时,整个事务可以重试
func isConflictError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, stock.ErrConcurrencyConflict) {
		return true
	}
	switch mysqlErrorNumber(err) {
	case errDeadlockDetected, errLockWaitTimeout:
		return true
	}
	return false
}

func conflict(err error) error {
	if errors.Is(err, stock.ErrConcurrencyConflict) {
		return err
	}
	return stock.ErrConcurrencyConflict.WithCause(err)
}

// wrapDBError 数据库错误统一包装
// 死锁/锁等待超时转为ErrConcurrencyConflict,由领域层整体重试事务
func wrapDBError(err error, message string) error {
	if isConflictError(err) {
		return conflict(err)
	}
	return apperrors.WrapDB(err, message)
}
