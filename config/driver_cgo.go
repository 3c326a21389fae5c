//go:build sqlite_cgo

package config

// CGO build backed by mattn/go-sqlite3.
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DriverName names the SQLite driver compiled in
const DriverName = "gorm.io/driver/sqlite (cgo)"

func openDialector(path string) gorm.Dialector {
	return sqlite.Open(path)
}
