package store

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// UnitOfWork scopes a logical operation's writes to one transaction.
//
// The transaction handle travels in the context. A nested Do on a context that
// already carries a transaction joins it instead of opening a savepoint, so
// the outermost Do alone decides commit or rollback.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do runs fn inside a transaction. A returned error or a panic rolls back
// every write made through DB(ctx) inside fn.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// DB returns the transaction carried by ctx, or the base handle bound to ctx.
func (u *UnitOfWork) DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return u.db.WithContext(ctx)
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}
