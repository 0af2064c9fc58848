package gridtick

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// Rasterizer turns content markup into an RGBA pixel buffer of exactly
// w*h*4 bytes. Implementations run on the render service's worker
// goroutine and must be usable from that single goroutine.
type Rasterizer interface {
	Rasterize(markup string, w, h int) ([]byte, error)
}

// SVGRasterizer renders the markup subset with a software rasterizer and
// an embedded font. Faces are cached per size.
type SVGRasterizer struct {
	source *text.FontSource
	faces  map[float64]text.Face
}

// NewSVGRasterizer creates a rasterizer using the embedded Go Regular font.
func NewSVGRasterizer() (*SVGRasterizer, error) {
	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("raster: load font: %w", err)
	}
	return &SVGRasterizer{
		source: source,
		faces:  make(map[float64]text.Face),
	}, nil
}

// Rasterize draws the markup onto a transparent w x h canvas and returns
// the RGBA bytes. Invalid markup is an error; the render service maps
// that to a fully transparent tile.
func (r *SVGRasterizer) Rasterize(markup string, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster: invalid dimensions %dx%d", w, h)
	}

	elems, err := ParseMarkup(markup)
	if err != nil {
		return nil, err
	}

	ctx := gg.NewContext(w, h)

	// shapes first, in document order
	for _, elem := range elems {
		switch el := elem.(type) {
		case RectElement:
			col, err := parseColor(el.Fill)
			if err != nil {
				return nil, err
			}
			ctx.SetColor(col)
			ctx.DrawRectangle(el.X, el.Y, el.Width, el.Height)
			if err := ctx.Fill(); err != nil {
				return nil, fmt.Errorf("raster: %w", err)
			}
		case CircleElement:
			col, err := parseColor(el.Fill)
			if err != nil {
				return nil, err
			}
			ctx.SetColor(col)
			ctx.DrawCircle(el.CX, el.CY, el.R)
			if err := ctx.Fill(); err != nil {
				return nil, fmt.Errorf("raster: %w", err)
			}
		}
	}

	img, ok := ctx.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("raster: unexpected image type %T", ctx.Image())
	}

	// text runs go on top of all shapes
	for _, elem := range elems {
		el, ok := elem.(TextElement)
		if !ok {
			continue
		}
		col, err := parseColor(el.Fill)
		if err != nil {
			return nil, err
		}
		face := r.face(el.FontSize)
		x := el.X
		if el.Anchor != "start" {
			width, _ := text.Measure(el.Content, face)
			if el.Anchor == "middle" {
				x -= width / 2
			} else {
				x -= width
			}
		}
		text.Draw(img, el.Content, face, x, el.Y, col)
	}

	return img.Pix, nil
}

func (r *SVGRasterizer) face(size float64) text.Face {
	if face, ok := r.faces[size]; ok {
		return face
	}
	face := r.source.Face(size)
	r.faces[size] = face
	return face
}

// namedColors covers the color keywords the markup generator and demo
// content use.
var namedColors = map[string]string{
	"black":  "#000000",
	"white":  "#FFFFFF",
	"red":    "#FF0000",
	"green":  "#008000",
	"blue":   "#0000FF",
	"yellow": "#FFFF00",
	"orange": "#FFA500",
	"purple": "#800080",
	"gray":   "#808080",
	"grey":   "#808080",
}

// parseColor resolves a fill attribute: hex colors, a small set of names,
// and "none"/"transparent". Anything else makes the markup invalid.
func parseColor(s string) (color.Color, error) {
	if s == "none" || s == "transparent" {
		return gg.Transparent.Color(), nil
	}
	if len(s) > 0 && s[0] == '#' {
		switch len(s) {
		case 4, 5, 7, 9:
			return gg.Hex(s).Color(), nil
		default:
			return nil, fmt.Errorf("markup: invalid hex color %q", s)
		}
	}
	if hex, ok := namedColors[s]; ok {
		return gg.Hex(hex).Color(), nil
	}
	return nil, fmt.Errorf("markup: unknown color %q", s)
}
