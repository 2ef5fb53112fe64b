package factory

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Password hashes a plaintext password with bcrypt at the default cost,
// for models that store credential hashes.
func Password(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// MustPassword is Password for test setup code that prefers a panic over
// error plumbing.
func MustPassword(plain string) string {
	hash, err := Password(plain)
	if err != nil {
		panic(err)
	}
	return hash
}

const defaultFileName = "example.dat"

// FileOptions describe the content and placement of a materialized file.
// At most one of FromPath, FromBytes and FromReader may be set; with none
// set the file is created empty.
type FileOptions struct {
	FromPath   string    // copy an existing file
	FromBytes  []byte    // write literal content
	FromReader io.Reader // drain a reader

	// Filename is the base name to store under. Defaults to the source
	// path's base name, or example.dat.
	Filename string

	// Dir is the directory to write into. Defaults to a per-run
	// directory under the system temp dir. Created if missing.
	Dir string
}

// File materializes a file on disk for models holding a file path column,
// and returns the path written. Names are prefixed with a random token so
// repeated factory runs never collide.
func File(opts FileOptions) (string, error) {
	content, name, err := fileContent(opts)
	if err != nil {
		return "", err
	}
	if opts.Filename != "" {
		name = opts.Filename
	}
	return writeMedia(opts.Dir, name, content)
}

func fileContent(opts FileOptions) (data []byte, name string, err error) {
	sources := 0
	if opts.FromPath != "" {
		sources++
	}
	if opts.FromBytes != nil {
		sources++
	}
	if opts.FromReader != nil {
		sources++
	}
	if sources > 1 {
		return nil, "", fmt.Errorf("at most one of FromPath, FromBytes and FromReader may be set")
	}

	switch {
	case opts.FromPath != "":
		data, err = os.ReadFile(opts.FromPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read source file: %w", err)
		}
		return data, filepath.Base(opts.FromPath), nil
	case opts.FromReader != nil:
		data, err = io.ReadAll(opts.FromReader)
		if err != nil {
			return nil, "", fmt.Errorf("failed to drain reader: %w", err)
		}
		return data, defaultFileName, nil
	case opts.FromBytes != nil:
		return opts.FromBytes, defaultFileName, nil
	default:
		return []byte{}, defaultFileName, nil
	}
}

const defaultImageName = "example.jpg"

// ImageOptions describe a generated placeholder image.
type ImageOptions struct {
	Width  int         // default 100
	Height int         // default Width
	Color  color.Color // fill color, default blue
	Format string      // "jpeg" or "png", default jpeg

	Filename string // default example.jpg
	Dir      string // as in FileOptions
}

// Image renders a solid-color placeholder image to disk for models holding
// an image path column, and returns the path written.
func Image(opts ImageOptions) (string, error) {
	width := opts.Width
	if width <= 0 {
		width = 100
	}
	height := opts.Height
	if height <= 0 {
		height = width
	}
	fill := opts.Color
	if fill == nil {
		fill = color.RGBA{B: 0xff, A: 0xff}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)

	var buf bytes.Buffer
	switch opts.Format {
	case "", "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			return "", fmt.Errorf("failed to encode jpeg: %w", err)
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("failed to encode png: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported image format %q", opts.Format)
	}

	name := opts.Filename
	if name == "" {
		name = defaultImageName
	}
	return writeMedia(opts.Dir, name, buf.Bytes())
}

// writeMedia writes content under dir with a collision-proof name and
// returns the full path.
func writeMedia(dir, name string, content []byte) (string, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "gofactory-media")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media dir: %w", err)
	}

	path := filepath.Join(dir, uuid.NewString()[:8]+"_"+name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return path, nil
}
