package dbmodels

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Meeting{},
		&Principal{},
		&AuthzRole{},
		&LibraryEntry{},
	)
}
