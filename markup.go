package gridtick

import (
	"encoding/xml"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"strconv"
	"strings"
)

// Tile dimensions for rendered cell content, in pixels.
const (
	TileWidth  = 80
	TileHeight = 30
)

// MarkupElement is one drawable element of cell content markup. The markup
// language is a small SVG subset: rect, circle, and text, with an optional
// enclosing <svg> wrapper.
type MarkupElement interface {
	isMarkupElement()
}

// RectElement is an axis-aligned filled rectangle.
type RectElement struct {
	X, Y          float64
	Width, Height float64
	Fill          string
}

func (RectElement) isMarkupElement() {}

// CircleElement is a filled circle.
type CircleElement struct {
	CX, CY float64
	R      float64
	Fill   string
}

func (CircleElement) isMarkupElement() {}

// TextElement is a single run of text. Anchor is "start", "middle", or
// "end" and positions the run relative to X.
type TextElement struct {
	X, Y     float64
	FontSize float64
	Anchor   string
	Fill     string
	Content  string
}

func (TextElement) isMarkupElement() {}

// ParseMarkup parses cell content markup into its elements, preserving
// document order. Unknown elements and attributes that fail to parse make
// the whole document invalid; the renderer substitutes a transparent tile
// for invalid content rather than drawing a partial one.
func ParseMarkup(markup string) ([]MarkupElement, error) {
	dec := xml.NewDecoder(strings.NewReader(markup))
	var elems []MarkupElement

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("markup: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "svg":
			// wrapper element; its children arrive as further tokens
		case "rect":
			el, err := parseRect(start)
			if err != nil {
				return nil, err
			}
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("markup: %w", err)
			}
			elems = append(elems, el)
		case "circle":
			el, err := parseCircle(start)
			if err != nil {
				return nil, err
			}
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("markup: %w", err)
			}
			elems = append(elems, el)
		case "text":
			el, err := parseText(dec, start)
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
		default:
			return nil, fmt.Errorf("markup: unsupported element <%s>", start.Name.Local)
		}
	}

	return elems, nil
}

func parseRect(start xml.StartElement) (RectElement, error) {
	el := RectElement{Fill: "black"}
	for _, attr := range start.Attr {
		var err error
		switch attr.Name.Local {
		case "x":
			el.X, err = strconv.ParseFloat(attr.Value, 64)
		case "y":
			el.Y, err = strconv.ParseFloat(attr.Value, 64)
		case "width":
			el.Width, err = strconv.ParseFloat(attr.Value, 64)
		case "height":
			el.Height, err = strconv.ParseFloat(attr.Value, 64)
		case "fill":
			el.Fill = attr.Value
		}
		if err != nil {
			return el, fmt.Errorf("markup: rect %s=%q: %w", attr.Name.Local, attr.Value, err)
		}
	}
	if el.Width < 0 || el.Height < 0 {
		return el, fmt.Errorf("markup: rect with negative size")
	}
	return el, nil
}

func parseCircle(start xml.StartElement) (CircleElement, error) {
	el := CircleElement{Fill: "black"}
	for _, attr := range start.Attr {
		var err error
		switch attr.Name.Local {
		case "cx":
			el.CX, err = strconv.ParseFloat(attr.Value, 64)
		case "cy":
			el.CY, err = strconv.ParseFloat(attr.Value, 64)
		case "r":
			el.R, err = strconv.ParseFloat(attr.Value, 64)
		case "fill":
			el.Fill = attr.Value
		}
		if err != nil {
			return el, fmt.Errorf("markup: circle %s=%q: %w", attr.Name.Local, attr.Value, err)
		}
	}
	if el.R < 0 {
		return el, fmt.Errorf("markup: circle with negative radius")
	}
	return el, nil
}

func parseText(dec *xml.Decoder, start xml.StartElement) (TextElement, error) {
	el := TextElement{FontSize: 12, Anchor: "start", Fill: "black"}
	for _, attr := range start.Attr {
		var err error
		switch attr.Name.Local {
		case "x":
			el.X, err = strconv.ParseFloat(attr.Value, 64)
		case "y":
			el.Y, err = strconv.ParseFloat(attr.Value, 64)
		case "font-size":
			el.FontSize, err = strconv.ParseFloat(attr.Value, 64)
		case "text-anchor":
			el.Anchor = attr.Value
		case "fill":
			el.Fill = attr.Value
		}
		if err != nil {
			return el, fmt.Errorf("markup: text %s=%q: %w", attr.Name.Local, attr.Value, err)
		}
	}
	switch el.Anchor {
	case "start", "middle", "end":
	default:
		return el, fmt.Errorf("markup: unsupported text-anchor %q", el.Anchor)
	}

	// collect character data up to the closing tag
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return el, fmt.Errorf("markup: unterminated <text>: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			el.Content = sb.String()
			return el, nil
		case xml.StartElement:
			return el, fmt.Errorf("markup: nested element <%s> inside <text>", t.Name.Local)
		}
	}
}

// ContentHash fingerprints content markup for the render cache. Identical
// markup always hashes identically, so cells showing the same content
// share one rasterized tile.
func ContentHash(markup string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(markup))
	return h.Sum64()
}

// LensOptions selects what a cell tile displays.
type LensOptions struct {
	// ShowValue draws the computed value (or error code) in the tile
	// center. On by default in DefaultLens.
	ShowValue bool
	// ShowCoord draws the coordinate name small in the top-left corner.
	ShowCoord bool
	// ShowFormula draws the raw formula text instead of the value for
	// formula cells.
	ShowFormula bool
}

// DefaultLens is the standard value view.
var DefaultLens = LensOptions{ShowValue: true}

// CellMarkup generates the content markup for one cell tile: a background
// rect tinted by cell state, then the selected text runs. The output is
// deterministic for a given cell state, which is what makes ContentHash a
// valid cache key.
func CellMarkup(cell *Cell, c Coord, opts LensOptions) string {
	var sb strings.Builder

	background := "#FFFFFF"
	switch {
	case cell.Error:
		background = "#FFCCCC"
	case cell.IsFormula:
		background = "#EEF4FF"
	}
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		TileWidth, TileHeight, background)

	if opts.ShowCoord {
		fmt.Fprintf(&sb, `<text x="2" y="9" font-size="8" fill="#999999">%s</text>`,
			escapeText(CoordToName(c.Col, c.Row)))
	}

	var label string
	switch {
	case cell.Error:
		label = "#ERR"
	case opts.ShowFormula && cell.IsFormula:
		label = strings.TrimSpace(cell.Raw)
	case opts.ShowValue:
		label = FormatValue(cell.Value)
	}
	if label != "" {
		fill := "#000000"
		if cell.Error {
			fill = "#CC0000"
		}
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="12" text-anchor="middle" fill="%s">%s</text>`,
			TileWidth/2, TileHeight/2+4, fill, escapeText(label))
	}

	return sb.String()
}

// CellContent generates a cell's markup and its content hash together.
func CellContent(cell *Cell, c Coord, opts LensOptions) (string, uint64) {
	markup := CellMarkup(cell, c, opts)
	return markup, ContentHash(markup)
}

func escapeText(s string) string {
	var sb strings.Builder
	if err := xml.EscapeText(&sb, []byte(s)); err != nil {
		return s
	}
	return sb.String()
}
