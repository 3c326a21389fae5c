//go:build !sqlite_cgo

package config

// Default build: pure Go SQLite, no C compiler required.
//
//	CGO_ENABLED=0 go build ./...

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// DriverName names the SQLite driver compiled in
const DriverName = "glebarez/sqlite (purego)"

func openDialector(path string) gorm.Dialector {
	return sqlite.Open(path)
}
