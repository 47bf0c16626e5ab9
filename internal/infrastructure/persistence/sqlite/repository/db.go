package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"faultline/internal/ports"
)

// dbFromContext prefers a transaction stored in context over the base
// handle so repository calls compose under a unit of work.
func dbFromContext(ctx context.Context, base *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return base.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
