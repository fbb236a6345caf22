package db

import (
	"database/sql/driver"
	"strings"

	msqlite "modernc.org/sqlite"
)

// unicodeLowerFunc はUnicodeの大文字を小文字に変換するSQLite関数の名前。
// SQLite組み込みのLOWERはASCIIしか変換しない。
const unicodeLowerFunc = "unicode_lower"

func init() {
	msqlite.MustRegisterDeterministicScalarFunction(unicodeLowerFunc, 1, unicodeLower)
}

// unicodeLower はstrings.ToLowerと同じ規則で引数を小文字にする。NULLはNULLのまま返す。
func unicodeLower(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}
