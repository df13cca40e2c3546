package annotation

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/EgorLis/book-module/internal/domain"
)

// Логическое разрешение холста, не зависит от экранного размера
const (
	LogicalWidth           = 2000
	LogicalHeightPortrait  = 2828
	LogicalHeightLandscape = 1414

	PenWidth    = 6
	EraserWidth = 60
	MaxWidth    = 200
)

// Палитра по умолчанию
var Palette = []string{"#ef4444", "#3b82f6", "#22c55e", "#1e293b"}

func LogicalSize(l domain.Layout) (int, int) {
	if l == domain.LayoutLandscape {
		return LogicalWidth, LogicalHeightLandscape
	}
	return LogicalWidth, LogicalHeightPortrait
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke: завершённый штрих в логических координатах
type Stroke struct {
	Points []Point `json:"points" validate:"required,min=1,max=20000"`
	Color  string  `json:"color" validate:"omitempty,hexcolor"`
	Width  float64 `json:"width" validate:"gte=0,lte=200"`
	Erase  bool    `json:"erase"`
}

func (s *Stroke) normalize() {
	if s.Width == 0 {
		if s.Erase {
			s.Width = EraserWidth
		} else {
			s.Width = PenWidth
		}
	}
	if s.Color == "" {
		s.Color = Palette[0]
	}
}

// Layer: растровый слой штрихов (premultiplied RGBA)
type Layer struct {
	img *image.RGBA
}

func NewLayer(l domain.Layout) *Layer {
	w, h := LogicalSize(l)
	return &Layer{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (l *Layer) Bounds() image.Rectangle { return l.img.Bounds() }

func (l *Layer) Image() *image.RGBA { return l.img }

func (l *Layer) Clone() *Layer {
	out := image.NewRGBA(l.img.Rect)
	copy(out.Pix, l.img.Pix)
	return &Layer{img: out}
}

// Empty: ни одного непрозрачного пикселя
func (l *Layer) Empty() bool {
	for i := 3; i < len(l.img.Pix); i += 4 {
		if l.img.Pix[i] != 0 {
			return false
		}
	}
	return true
}

// Over кладёт top поверх l (source-over)
func (l *Layer) Over(top *Layer) {
	draw.Draw(l.img, l.img.Bounds(), top.img, image.Point{}, draw.Over)
}

// Apply рисует штрих: обычный режим, source-over, ластик, destination-out
func (l *Layer) Apply(s Stroke) error {
	s.normalize()
	col, err := ParseHexColor(s.Color)
	if err != nil {
		return err
	}

	r := s.Width / 2
	box := strokeBounds(s.Points, r).Intersect(l.img.Bounds())
	if box.Empty() {
		return nil
	}
	rz := vector.NewRasterizer(box.Dx(), box.Dy())
	ox, oy := float64(box.Min.X), float64(box.Min.Y)

	// сегменты, прямоугольники толщиной Width, стыки и концы, круги (round cap/join)
	for i, p := range s.Points {
		addCircle(rz, p.X-ox, p.Y-oy, r)
		if i == 0 {
			continue
		}
		q := s.Points[i-1]
		addSegment(rz, q.X-ox, q.Y-oy, p.X-ox, p.Y-oy, r)
	}

	if !s.Erase {
		rz.DrawOp = draw.Over
		rz.Draw(l.img, box, image.NewUniform(col), image.Point{})
		return nil
	}

	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	rz.DrawOp = draw.Src
	rz.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	for y := 0; y < box.Dy(); y++ {
		for x := 0; x < box.Dx(); x++ {
			a := uint32(mask.Pix[y*mask.Stride+x])
			if a == 0 {
				continue
			}
			i := l.img.PixOffset(box.Min.X+x, box.Min.Y+y)
			keep := 255 - a
			for c := 0; c < 4; c++ {
				l.img.Pix[i+c] = uint8(uint32(l.img.Pix[i+c]) * keep / 255)
			}
		}
	}
	return nil
}

func strokeBounds(pts []Point, r float64) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return image.Rect(
		int(math.Floor(minX-r))-1, int(math.Floor(minY-r))-1,
		int(math.Ceil(maxX+r))+1, int(math.Ceil(maxY+r))+1,
	)
}

const capSegments = 24

func addCircle(rz *vector.Rasterizer, cx, cy, r float64) {
	rz.MoveTo(float32(cx+r), float32(cy))
	for i := 1; i <= capSegments; i++ {
		a := 2 * math.Pi * float64(i) / capSegments
		rz.LineTo(float32(cx+r*math.Cos(a)), float32(cy+r*math.Sin(a)))
	}
	rz.ClosePath()
}

func addSegment(rz *vector.Rasterizer, x1, y1, x2, y2, r float64) {
	dx, dy := x2-x1, y2-y1
	n := math.Hypot(dx, dy)
	if n == 0 {
		return
	}
	// обход в ту же сторону, что и у addCircle, иначе перекрытия взаимно вычитаются
	nx, ny := -dy/n*r, dx/n*r
	rz.MoveTo(float32(x1-nx), float32(y1-ny))
	rz.LineTo(float32(x2-nx), float32(y2-ny))
	rz.LineTo(float32(x2+nx), float32(y2+ny))
	rz.LineTo(float32(x1+nx), float32(y1+ny))
	rz.ClosePath()
}

// ParseHexColor: "#rgb" или "#rrggbb"
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: color %q", domain.ErrInvalidInput, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: color %q", domain.ErrInvalidInput, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// EncodePNG: снимок слоя; пустой слой даёт nil (в хранилище «нет штрихов»)
func (l *Layer) EncodePNG() ([]byte, error) {
	if l.Empty() {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, l.img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeLayer восстанавливает слой из снимка; размер приводится к логическому
func DecodeLayer(data []byte, layout domain.Layout) (*Layer, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	l := NewLayer(layout)
	if src.Bounds().Size() == l.img.Bounds().Size() {
		draw.Draw(l.img, l.img.Bounds(), src, src.Bounds().Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(l.img, l.img.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	return l, nil
}
