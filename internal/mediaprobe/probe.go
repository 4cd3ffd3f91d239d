// Package mediaprobe inspects raw media payloads on behalf of producers:
// MIME sniffing, media kind, pixel dimensions and thumbnails.
package mediaprobe

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"MemoGallery/internal/model"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupported is returned for payloads that are neither image nor video.
	ErrUnsupported = errors.New("unsupported media type")
	// ErrNoDimensions means the payload is media but its size could not be decoded
	// (videos, or image formats without a registered decoder); the producer must supply them.
	ErrNoDimensions = errors.New("media dimensions unknown")
)

// DefaultThumbnailWidth is used when the caller asks for width <= 0.
const DefaultThumbnailWidth = 320

// Info describes a sniffed payload.
type Info struct {
	MIME      string
	Extension string
	Kind      model.MediaKind
	Width     int
	Height    int
}

// Detect sniffs the MIME type and extension without decoding.
func Detect(payload []byte) (mime, ext string) {
	mt := mimetype.Detect(payload)
	ext = mt.Extension()
	if ext == "" {
		ext = ".bin"
	}
	return mt.String(), ext
}

// Probe sniffs payload and, for images, decodes the pixel dimensions.
// For a recognised video it returns Info with ErrNoDimensions.
func Probe(payload []byte) (Info, error) {
	if len(payload) == 0 {
		return Info{}, fmt.Errorf("%w: empty payload", ErrUnsupported)
	}
	mime, ext := Detect(payload)
	info := Info{MIME: mime, Extension: ext}

	switch {
	case strings.HasPrefix(mime, "image/"):
		info.Kind = model.KindImage
		cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
		if err != nil {
			return info, fmt.Errorf("%w: %s: %v", ErrNoDimensions, mime, err)
		}
		info.Width, info.Height = cfg.Width, cfg.Height
		return info, nil
	case strings.HasPrefix(mime, "video/"):
		info.Kind = model.KindVideo
		return info, ErrNoDimensions
	default:
		return info, fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}
}

// Thumbnail decodes an image payload and scales it down to width pixels
// (aspect ratio kept, never upscaled), returning JPEG bytes.
func Thumbnail(payload []byte, width int) ([]byte, error) {
	if width <= 0 {
		width = DefaultThumbnailWidth
	}
	img, err := imaging.Decode(bytes.NewReader(payload), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
