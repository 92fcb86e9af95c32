package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateKey 唯一索引冲突
var ErrDuplicateKey = errors.New("duplicate key")

const mysqlDuplicateEntry = 1062

func translateError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrDuplicateKey
	}
	return err
}
