package factory

import (
	"bytes"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPassword_ProducesVerifiableHash(t *testing.T) {
	hash, err := Password("s3cret")
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")))
}

func TestFile_WritesContentWithUniqueName(t *testing.T) {
	dir := t.TempDir()

	path, err := File(FileOptions{FromBytes: []byte("payload"), Dir: dir})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
	assert.True(t, strings.HasSuffix(filepath.Base(path), "_example.dat"))

	second, err := File(FileOptions{FromBytes: []byte("payload"), Dir: dir})
	require.NoError(t, err)
	assert.NotEqual(t, path, second, "names never collide across runs")
}

func TestFile_CopiesSourceFileKeepingBaseName(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.csv")
	require.NoError(t, os.WriteFile(src, []byte("a,b\n"), 0o644))

	path, err := File(FileOptions{FromPath: src, Dir: dir})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(filepath.Base(path), "_report.csv"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("a,b\n"), data)
}

func TestFile_ReadsFromReader(t *testing.T) {
	path, err := File(FileOptions{FromReader: bytes.NewBufferString("streamed"), Dir: t.TempDir()})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(data))
}

func TestFile_RejectsMultipleSources(t *testing.T) {
	_, err := File(FileOptions{
		FromBytes:  []byte("x"),
		FromReader: bytes.NewBufferString("y"),
		Dir:        t.TempDir(),
	})
	assert.Error(t, err)
}

func TestFile_EmptyByDefault(t *testing.T) {
	path, err := File(FileOptions{Dir: t.TempDir()})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestImage_DefaultJPEGDimensions(t *testing.T) {
	path, err := Image(ImageOptions{Dir: t.TempDir()})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestImage_PNGWithExplicitSize(t *testing.T) {
	path, err := Image(ImageOptions{Width: 32, Height: 16, Format: "png", Dir: t.TempDir()})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}

func TestImage_UnsupportedFormat(t *testing.T) {
	_, err := Image(ImageOptions{Format: "gif", Dir: t.TempDir()})
	assert.ErrorContains(t, err, "gif")
}
