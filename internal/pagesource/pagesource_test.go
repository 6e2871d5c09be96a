package pagesource_test

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doculens/internal/domain"
	"doculens/internal/pagesource"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestLoad_OrderedPages(t *testing.T) {
	src := pagesource.New()

	doc, err := src.Load(context.Background(), "scan.pdf",
		[][]byte{pngBytes(t, 100, 200), jpegBytes(t, 300, 400)},
		[]string{"image/png", "image/jpeg"})
	require.NoError(t, err)

	assert.Equal(t, "scan.pdf", doc.SourceName)
	assert.Equal(t, 2, doc.TotalPages)
	require.Len(t, doc.Pages, 2)

	assert.Equal(t, 0, doc.Pages[0].Index)
	assert.Equal(t, 100, doc.Pages[0].Width)
	assert.Equal(t, 200, doc.Pages[0].Height)
	assert.Equal(t, "image/png", doc.Pages[0].ContentType)

	assert.Equal(t, 1, doc.Pages[1].Index)
	assert.Equal(t, 300, doc.Pages[1].Width)
	assert.Equal(t, "image/jpeg", doc.Pages[1].ContentType)
}

func TestLoad_NoPages(t *testing.T) {
	_, err := pagesource.New().Load(context.Background(), "x", nil, nil)
	assert.ErrorIs(t, err, domain.ErrNoPages)
}

func TestLoad_UnsupportedContentType(t *testing.T) {
	_, err := pagesource.New().Load(context.Background(), "x",
		[][]byte{[]byte("%PDF-1.4")}, []string{"application/pdf"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestLoad_UndecodableImage(t *testing.T) {
	_, err := pagesource.New().Load(context.Background(), "x",
		[][]byte{[]byte("not an image")}, []string{"image/png"})
	assert.Error(t, err)
}

func TestLoad_ContentTypeCountMismatch(t *testing.T) {
	_, err := pagesource.New().Load(context.Background(), "x",
		[][]byte{pngBytes(t, 1, 1)}, []string{"image/png", "image/png"})
	assert.Error(t, err)
}
