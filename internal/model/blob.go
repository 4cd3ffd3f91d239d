package model

// Blob — бинарное содержимое медиа-записи (таблица blobs).
// Делит ключ с Media, но хранится отдельно: списки метаданных не тянут байты.
type Blob struct {
	ID   string `gorm:"primaryKey"`
	Data []byte `gorm:"not null"`
}
