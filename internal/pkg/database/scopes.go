package database

import "gorm.io/gorm"

// Paginate limits a query to one page. Pages start at 1.
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		if pageSize < 1 {
			pageSize = 20
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// WhereIf adds the condition only when cond is true.
func WhereIf(cond bool, query interface{}, args ...interface{}) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !cond {
			return db
		}
		return db.Where(query, args...)
	}
}
