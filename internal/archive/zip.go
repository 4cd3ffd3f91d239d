// Package archive packs gallery records for bulk download.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"MemoGallery/internal/mediaprobe"
	"MemoGallery/internal/model"
)

// EntryName — имя файла записи внутри архива: <kind>-<id><ext>.
func EntryName(rec model.MediaRecord) string {
	_, ext := mediaprobe.Detect(rec.Payload)
	kind := rec.Kind
	if kind == "" {
		kind = model.KindImage
	}
	return fmt.Sprintf("%s-%s%s", kind, safeName(rec.ID), ext)
}

// safeName оставляет в id только буквы, цифры, '-', '_' и одиночные точки,
// чтобы имя не выходило за каталог распаковки и не ломало заголовки.
func safeName(id string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, id)
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", "_")
	}
	if name == "" || name == "." {
		return "media"
	}
	return name
}

// WriteZip пишет записи в ZIP в переданном порядке. Записи без содержимого пропускаются.
// Содержимое кладётся без сжатия (zip.Store).
func WriteZip(w io.Writer, records []model.MediaRecord) (int, error) {
	zw := zip.NewWriter(w)
	n := 0
	for _, rec := range records {
		if len(rec.Payload) == 0 {
			continue
		}
		hdr := &zip.FileHeader{
			Name:     EntryName(rec),
			Method:   zip.Store,
			Modified: time.UnixMilli(rec.CreatedAt),
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return n, fmt.Errorf("zip entry %s: %w", rec.ID, err)
		}
		if _, err := fw.Write(rec.Payload); err != nil {
			return n, fmt.Errorf("zip entry %s: %w", rec.ID, err)
		}
		n++
	}
	if err := zw.Close(); err != nil {
		return n, fmt.Errorf("close zip: %w", err)
	}
	return n, nil
}
