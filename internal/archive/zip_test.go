package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"MemoGallery/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func TestWriteZip(t *testing.T) {
	records := []model.MediaRecord{
		{ID: "a", Payload: pngHeader, Kind: model.KindImage, CreatedAt: 1_700_000_000_000},
		{ID: "empty", Kind: model.KindImage},
		{ID: "b", Payload: []byte("raw bytes"), Kind: model.KindVideo},
	}
	var buf bytes.Buffer
	n, err := WriteZip(&buf, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "image-a.png", zr.File[0].Name)
	assert.Equal(t, "video-b.txt", zr.File[1].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, got)
}

func TestWriteZip_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteZip(&buf, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.NoError(t, err)
}

func TestEntryName_StaysInsideArchiveRoot(t *testing.T) {
	cases := map[string]string{
		"../../../tmp/evil": "image-______tmp_evil.png",
		`..\..\win`:         "image-____win.png",
		`a"b;c`:             "image-a_b_c.png",
		"IMG_2024.06.01":    "image-IMG_2024.06.01.png",
		"..":                "image-_.png",
		"":                  "image-media.png",
	}
	for id, want := range cases {
		name := EntryName(model.MediaRecord{ID: id, Payload: pngHeader, Kind: model.KindImage})
		assert.Equal(t, want, name, id)
		assert.NotContains(t, name, "/")
		assert.NotContains(t, name, "..")
	}
}
