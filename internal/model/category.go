package model

// Category — категория галереи. Count — кэшируемое производное значение,
// его пересчитывает service.Aggregator.
type Category struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Color string `gorm:"not null" json:"color"`
	Count int    `gorm:"not null" json:"count"`
}
