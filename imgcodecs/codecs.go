package imgcodecs

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/openhl/openhl/core"
)

// Codec errors.
var (
	// ErrUnknownExtension is returned when a file name has no supported extension.
	ErrUnknownExtension = errors.New("imgcodecs: unknown file extension")

	// ErrEmptyData is returned for images without pixels.
	ErrEmptyData = errors.New("imgcodecs: empty image")
)

// DecodeBMP reads a BMP image into a new Mat. See FromImage for the layout.
func DecodeBMP(r io.Reader) (*core.Mat, error) {
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imgcodecs: decode BMP: %w", err)
	}
	return FromImage(img)
}

// DecodePNG reads a PNG image into a new Mat.
func DecodePNG(r io.Reader) (*core.Mat, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imgcodecs: decode PNG: %w", err)
	}
	return FromImage(img)
}

// Decode reads any registered format (BMP, PNG) into a new Mat.
func Decode(r io.Reader) (*core.Mat, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imgcodecs: decode: %w", err)
	}
	core.Logger().Debug("imgcodecs: decoded", "format", format, "bounds", img.Bounds())
	return FromImage(img)
}

// EncodeBMP writes an 8UC1, 8UC3 (BGR) or 8UC4 (BGRA) Mat as BMP.
func EncodeBMP(w io.Writer, m *core.Mat) error {
	img, err := ToImage(m)
	if err != nil {
		return err
	}
	if err := bmp.Encode(w, img); err != nil {
		return fmt.Errorf("imgcodecs: encode BMP: %w", err)
	}
	return nil
}

// EncodePNG writes an 8UC1, 8UC3 (BGR) or 8UC4 (BGRA) Mat as PNG.
func EncodePNG(w io.Writer, m *core.Mat) error {
	img, err := ToImage(m)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("imgcodecs: encode PNG: %w", err)
	}
	return nil
}

// ReadBMP loads a BMP file.
func ReadBMP(path string) (*core.Mat, error) {
	return readFile(path, DecodeBMP)
}

// WriteBMP saves m as a BMP file.
func WriteBMP(path string, m *core.Mat) error {
	return writeFile(path, m, EncodeBMP)
}

// Read loads a file, choosing the decoder from its extension (.bmp, .png)
// and sniffing the content otherwise.
func Read(path string) (*core.Mat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp", ".dib":
		return readFile(path, DecodeBMP)
	case ".png":
		return readFile(path, DecodePNG)
	default:
		return readFile(path, Decode)
	}
}

// Write saves m in the format named by the file extension (.bmp or .png).
func Write(path string, m *core.Mat) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp", ".dib":
		return writeFile(path, m, EncodeBMP)
	case ".png":
		return writeFile(path, m, EncodePNG)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownExtension, path)
	}
}

func readFile(path string, decode func(io.Reader) (*core.Mat, error)) (*core.Mat, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("imgcodecs: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, err := decode(f)
	if err != nil {
		return nil, err
	}
	core.Logger().Debug("imgcodecs: read", "path", path, "size", m.Size(), "type", m.Type())
	return m, nil
}

func writeFile(path string, m *core.Mat, encode func(io.Writer, *core.Mat) error) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("imgcodecs: create file: %w", err)
	}
	if err := encode(f, m); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
