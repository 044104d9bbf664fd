package db

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"gorm.io/gorm"
)

// ErrRollback is returned from a transaction callback to roll it back without failing.
var ErrRollback = errors.New("transaction rollback")

var rollbackRe = regexp.MustCompile(`(?i)rollback|rolled back`)

type txKey struct{}

// WithTx returns a context carrying the current test transaction
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction carried by ctx
func TxFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// Conn returns the transaction on ctx if there is one, otherwise db, bound to ctx.
// Code under test uses it so that its queries join the case transaction.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// IsRollback reports whether err only signals that a transaction was rolled back.
func IsRollback(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRollback) || errors.Is(err, sql.ErrTxDone) || rollbackRe.MatchString(err.Error())
}

// InRollbackTransaction runs fn inside a transaction that is always rolled back.
// The transaction is also put on the context passed to fn.
// Rollback errors are swallowed, every other error from fn is returned.
func InRollbackTransaction(ctx context.Context, db *gorm.DB, fn func(ctx context.Context, tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(WithTx(ctx, tx), tx); err != nil {
			return err
		}
		return ErrRollback
	})
	if IsRollback(err) {
		return nil
	}
	return err
}
