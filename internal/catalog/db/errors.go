package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound は指定されたIDのレコードが存在しない場合に返る。
	ErrNotFound = errors.New("レコードが見つかりません")
	// ErrCategoryReference は製品が存在しないカテゴリを参照した場合に返る。
	// 参照整合性はストアの外部キー制約で検出する。
	ErrCategoryReference = errors.New("参照先のカテゴリが存在しません")
)

// pgForeignKeyViolation はPostgreSQLの外部キー制約違反を表すSQLSTATE。
const pgForeignKeyViolation = "23503"

// translateError はドライバ固有のエラーをパッケージのエラーに変換する。
// 変換対象でないエラーはそのまま返す。
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "FOREIGN KEY")) {
			return ErrCategoryReference
		}
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ErrCategoryReference
	}

	return err
}
