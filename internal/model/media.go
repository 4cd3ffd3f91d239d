package model

import "fmt"

// MediaKind — тип медиа-записи.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// ParseKind разбирает строковое значение типа. Пустая строка означает image.
func ParseKind(s string) (MediaKind, error) {
	switch MediaKind(s) {
	case "", KindImage:
		return KindImage, nil
	case KindVideo:
		return KindVideo, nil
	default:
		return "", fmt.Errorf("%w: unknown media kind %q", ErrInvalidRecord, s)
	}
}

// Media — метаданные медиа-записи (таблица media).
// Kind, DurationSeconds и Favorite появились не сразу, поэтому в старых строках
// они могут быть NULL; значения по умолчанию подставляются при чтении.
type Media struct {
	ID              string `gorm:"primaryKey"`
	Category        string `gorm:"not null;index:idx_media_category"`
	CreatedAtMs     int64  `gorm:"column:created_at_ms;not null;index:idx_media_created_at"`
	Width           int    `gorm:"not null"`
	Height          int    `gorm:"not null"`
	SizeBytes       int64  `gorm:"not null"`
	Kind            *string
	DurationSeconds *float64
	Favorite        *bool
}

// TableName фиксирует имя таблицы.
func (Media) TableName() string { return "media" }

// MediaKindOrDefault возвращает тип записи; отсутствующее значение — image.
func (m Media) MediaKindOrDefault() MediaKind {
	if m.Kind == nil || *m.Kind == "" {
		return KindImage
	}
	return MediaKind(*m.Kind)
}

// IsFavorite возвращает флаг избранного; отсутствующее значение — false.
func (m Media) IsFavorite() bool {
	return m.Favorite != nil && *m.Favorite
}

// Record собирает публичное представление записи. payload может быть nil
// для списков, где байты не нужны.
func (m Media) Record(payload []byte) MediaRecord {
	rec := MediaRecord{
		ID:        m.ID,
		Payload:   payload,
		Category:  m.Category,
		CreatedAt: m.CreatedAtMs,
		Width:     m.Width,
		Height:    m.Height,
		SizeBytes: m.SizeBytes,
		Kind:      m.MediaKindOrDefault(),
		Favorite:  m.IsFavorite(),
	}
	if rec.Kind == KindVideo && m.DurationSeconds != nil {
		d := *m.DurationSeconds
		rec.DurationSeconds = &d
	}
	return rec
}

// MediaRecord — запись галереи: метаданные плюс (опционально) содержимое.
type MediaRecord struct {
	ID              string    `json:"id"`
	Payload         []byte    `json:"-"`
	Category        string    `json:"category"`
	CreatedAt       int64     `json:"createdAt"` // ms since epoch
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	SizeBytes       int64     `json:"sizeBytes"`
	Kind            MediaKind `json:"kind"`
	DurationSeconds *float64  `json:"durationSeconds,omitempty"`
	Favorite        bool      `json:"favorite"`
}
