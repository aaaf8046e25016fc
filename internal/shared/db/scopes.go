// Package db provides reusable GORM query scopes.
package db

import (
	"gorm.io/gorm"
)

// EqualIfSet filters column = value, or does nothing when value is empty.
//
//	db.Model(&Model{}).Scopes(db.EqualIfSet("tenant_key", filter.TenantKey)).Find(&rows)
func EqualIfSet(column, value string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if value == "" {
			return db
		}
		return db.Where(column+" = ?", value)
	}
}

// Limit clamps n to 1..maxLimit, using defaultLimit for non-positive values.
func Limit(n, defaultLimit, maxLimit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case n <= 0:
			n = defaultLimit
		case n > maxLimit:
			n = maxLimit
		}
		return db.Limit(n)
	}
}
