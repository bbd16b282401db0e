package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsNotProvisioned 判断错误是否为表尚未创建（新部署、未迁移）
func IsNotProvisioned(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "42P01" // undefined_table
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1146 // ER_NO_SUCH_TABLE
	}

	// sqlite 驱动不暴露错误码
	return strings.Contains(strings.ToLower(err.Error()), "no such table")
}
