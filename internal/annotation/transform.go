package annotation

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/EgorLis/book-module/internal/domain"
)

// View описывает экранную область, в которой показан холст. Rotation по часовой: 0/90/180/270.
type View struct {
	Width    float64 `json:"width" validate:"gt=0"`
	Height   float64 `json:"height" validate:"gt=0"`
	Rotation int     `json:"rotation" validate:"oneof=0 90 180 270"`
}

// ScreenToLogical переводит экранную точку в логические координаты холста
func ScreenToLogical(p Point, v View, layout domain.Layout) (Point, error) {
	if err := domain.ValidateStruct(v); err != nil {
		return Point{}, err
	}
	lw, lh := LogicalSize(layout)
	var u, w float64
	switch v.Rotation {
	case 0:
		u, w = p.X/v.Width, p.Y/v.Height
	case 90:
		u, w = p.Y/v.Height, (v.Width-p.X)/v.Width
	case 180:
		u, w = (v.Width-p.X)/v.Width, (v.Height-p.Y)/v.Height
	case 270:
		u, w = (v.Height-p.Y)/v.Height, p.X/v.Width
	}
	return Point{X: u * float64(lw), Y: w * float64(lh)}, nil
}

// ScreenStroke переводит все точки штриха; ширина масштабируется по горизонтали холста
func ScreenStroke(s Stroke, v View, layout domain.Layout) (Stroke, error) {
	out := s
	out.Points = make([]Point, len(s.Points))
	for i, p := range s.Points {
		lp, err := ScreenToLogical(p, v, layout)
		if err != nil {
			return Stroke{}, err
		}
		out.Points[i] = lp
	}
	if s.Width > 0 {
		lw, _ := LogicalSize(layout)
		side := v.Width
		if v.Rotation == 90 || v.Rotation == 270 {
			side = v.Height
		}
		out.Width = s.Width * float64(lw) / side
	}
	return out, nil
}

type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatWebP:
		return FormatWebP, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", domain.ErrBadParams, s)
}

func (f Format) MIME() string {
	if f == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

// Render масштабирует слой под экранную область и поворачивает его
func Render(l *Layer, v View) (image.Image, error) {
	if err := domain.ValidateStruct(v); err != nil {
		return nil, err
	}
	w, h := int(v.Width+0.5), int(v.Height+0.5)
	if v.Rotation == 90 || v.Rotation == 270 {
		w, h = h, w
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty view", domain.ErrBadParams)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), l.img, l.img.Bounds(), draw.Src, nil)

	// imaging поворачивает против часовой
	switch v.Rotation {
	case 90:
		return imaging.Rotate270(dst), nil
	case 180:
		return imaging.Rotate180(dst), nil
	case 270:
		return imaging.Rotate90(dst), nil
	}
	return dst, nil
}

func Encode(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	default:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	}
	return buf.Bytes(), nil
}
