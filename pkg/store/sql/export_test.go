package sql

import "gorm.io/gorm"

func (s *Store) DB() *gorm.DB {
	return s.db
}
