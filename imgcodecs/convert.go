package imgcodecs

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/openhl/openhl/core"
)

// FromImage copies img into a new Mat: 8UC1 for grayscale images, 8UC3 in
// BGR order for everything else. Alpha is dropped; other color models are
// converted through golang.org/x/image/draw.
func FromImage(img image.Image) (*core.Mat, error) {
	if img == nil {
		return nil, core.Errorf(core.CodeBadArg, "nil image")
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmptyData
	}

	if isGray(img.ColorModel()) {
		gray, ok := img.(*image.Gray)
		if !ok {
			gray = image.NewGray(image.Rect(0, 0, w, h))
			draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
			b = gray.Bounds()
		}
		m, err := core.NewMat(h, w, core.U8C1)
		if err != nil {
			return nil, err
		}
		for y := range h {
			off := gray.PixOffset(b.Min.X, b.Min.Y+y)
			copy(core.RowOf[uint8](m, y), gray.Pix[off:off+w])
		}
		return m, nil
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
		b = nrgba.Bounds()
	}
	m, err := core.NewMat(h, w, core.U8C3)
	if err != nil {
		return nil, err
	}
	for y := range h {
		src := nrgba.Pix[nrgba.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := core.RowOf[uint8](m, y)
		for x := range w {
			dst[x*3] = src[x*4+2]   // B
			dst[x*3+1] = src[x*4+1] // G
			dst[x*3+2] = src[x*4]   // R
		}
	}
	return m, nil
}

func isGray(m color.Model) bool {
	if m == color.GrayModel || m == color.Gray16Model {
		return true
	}
	// 8-bit grayscale BMPs decode as paletted images with a gray ramp.
	p, ok := m.(color.Palette)
	if !ok || len(p) == 0 {
		return false
	}
	for _, c := range p {
		r, g, b, _ := c.RGBA()
		if r != g || g != b {
			return false
		}
	}
	return true
}

// ToImage copies an 8-bit Mat into an image: *image.Gray for one channel,
// *image.NRGBA for three (BGR) or four (BGRA) channels.
func ToImage(m *core.Mat) (image.Image, error) {
	if m == nil || m.Empty() || m.Dims() != 2 {
		return nil, core.Errorf(core.CodeBadArg, "need a non-empty 2D Mat")
	}
	if m.Depth() != core.U8 {
		return nil, core.Errorf(core.CodeUnsupportedFormat, "image type %v, want 8-bit", m.Type())
	}
	w, h := m.Cols(), m.Rows()
	rect := image.Rect(0, 0, w, h)

	switch cn := m.Channels(); cn {
	case 1:
		gray := image.NewGray(rect)
		for y := range h {
			copy(gray.Pix[y*gray.Stride:], core.RowOf[uint8](m, y))
		}
		return gray, nil

	case 3, 4:
		nrgba := image.NewNRGBA(rect)
		for y := range h {
			src := core.RowOf[uint8](m, y)
			dst := nrgba.Pix[y*nrgba.Stride:]
			for x := range w {
				s := src[x*cn:]
				dst[x*4] = s[2]
				dst[x*4+1] = s[1]
				dst[x*4+2] = s[0]
				if cn == 4 {
					dst[x*4+3] = s[3]
				} else {
					dst[x*4+3] = 255
				}
			}
		}
		return nrgba, nil

	default:
		return nil, core.Errorf(core.CodeUnsupportedFormat, "image with %d channels", cn)
	}
}
