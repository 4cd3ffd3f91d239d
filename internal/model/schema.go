package model

// SchemaVersion — единственная строка (ID = 1) с версией схемы хранилища.
type SchemaVersion struct {
	ID        int   `gorm:"primaryKey;autoIncrement:false"`
	Version   int   `gorm:"not null"`
	AppliedAt int64 `gorm:"not null"`
}
