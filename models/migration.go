package models

import (
	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) error {
	if db == nil {
		return ErrDBNotInitialized
	}
	return db.AutoMigrate(
		&Product{},
		&Transaction{},
		&TransactionLine{},
	)
}
