// Package db はカタログのデータモデルと永続化ゲートウェイを提供する。
//
// GORMを介してSQLite（modernc.org/sqlite）またはPostgreSQLに接続する。
// すべての操作は1往復・自動コミットで、リクエストをまたぐトランザクションは持たない。
package db

import (
	"embed"
	"fmt"

	"github.com/nao1215/catalog/pkg/migration"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const (
	// DriverSQLite はSQLiteを表すドライバ名。
	DriverSQLite = "sqlite"
	// DriverPostgres はPostgreSQLを表すドライバ名。
	DriverPostgres = "postgres"
)

// InMemoryDSN は外部キー制約を有効にしたインメモリSQLiteの接続文字列。
// テストやローカルでの動作確認に使う。
const InMemoryDSN = ":memory:?_pragma=foreign_keys(1)&_time_format=sqlite"

//go:embed migrations
var migrations embed.FS

// Open は指定されたドライバでデータベースに接続する。
// debugがtrueの場合は発行されたSQLをログに出力する。
func Open(driver, dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		// modernc.org/sqlite は "sqlite" という名前で登録される
		dialector = sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn})
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("未対応のデータベースドライバです: %s", driver)
	}

	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if driver == DriverSQLite {
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, fmt.Errorf("sql.DBの取得に失敗: %w", err)
		}
		// SQLiteは書き込みを直列化し、インメモリDBは接続ごとに独立している
		sqlDB.SetMaxOpenConns(1)
	}

	return gormDB, nil
}

// Migrate はドライバに対応するスキーマを適用する。
func Migrate(gormDB *gorm.DB, driver string, log logrus.FieldLogger) error {
	if driver != DriverSQLite && driver != DriverPostgres {
		return fmt.Errorf("未対応のデータベースドライバです: %s", driver)
	}
	if _, err := migration.Run(gormDB, migrations, "migrations/"+driver, log); err != nil {
		return fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return nil
}

// Close はデータベース接続を閉じる。
func Close(gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("sql.DBの取得に失敗: %w", err)
	}
	return sqlDB.Close()
}
