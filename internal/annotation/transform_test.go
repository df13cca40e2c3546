package annotation

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/book-module/internal/domain"
)

func TestScreenToLogical(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		v    View
		want Point
	}{
		{"upright", Point{X: 100, Y: 283}, View{Width: 400, Height: 566}, Point{X: 500, Y: 1414}},
		{"upright origin", Point{}, View{Width: 400, Height: 566}, Point{}},
		// повёрнутая на 90° страница: левый верхний угол контента уходит вправо вверх
		{"90 top-right", Point{X: 566, Y: 0}, View{Width: 566, Height: 400, Rotation: 90}, Point{}},
		{"180 bottom-right", Point{X: 400, Y: 566}, View{Width: 400, Height: 566, Rotation: 180}, Point{}},
		{"270 bottom-left", Point{X: 0, Y: 400}, View{Width: 566, Height: 400, Rotation: 270}, Point{}},
		{"270 top-left", Point{X: 0, Y: 0}, View{Width: 566, Height: 400, Rotation: 270}, Point{X: 2000, Y: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScreenToLogical(tt.p, tt.v, domain.LayoutPortrait)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.X, got.X, 1)
			assert.InDelta(t, tt.want.Y, got.Y, 1)
		})
	}
}

func TestScreenToLogicalBadView(t *testing.T) {
	_, err := ScreenToLogical(Point{}, View{Width: 100, Height: 100, Rotation: 45}, domain.LayoutPortrait)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = ScreenToLogical(Point{}, View{Height: 100}, domain.LayoutPortrait)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScreenStrokeScalesWidth(t *testing.T) {
	s, err := ScreenStroke(Stroke{Points: []Point{{X: 10, Y: 10}}, Width: 2}, View{Width: 400, Height: 566}, domain.LayoutPortrait)
	require.NoError(t, err)
	assert.InDelta(t, 10, s.Width, 0.001)
	assert.InDelta(t, 50, s.Points[0].X, 0.001)
}

// Точка, нарисованная в экранных координатах, видна в том же месте отрендеренного слоя
func TestRenderMatchesScreenPoint(t *testing.T) {
	screen := Point{X: 100, Y: 150}
	for _, v := range []View{
		{Width: 400, Height: 566},
		{Width: 566, Height: 400, Rotation: 90},
		{Width: 400, Height: 566, Rotation: 180},
		{Width: 566, Height: 400, Rotation: 270},
	} {
		l := NewLayer(domain.LayoutPortrait)
		s, err := ScreenStroke(Stroke{Points: []Point{screen}, Width: 8}, v, domain.LayoutPortrait)
		require.NoError(t, err)
		require.NoError(t, l.Apply(s))

		img, err := Render(l, v)
		require.NoError(t, err)
		require.Equal(t, image.Rect(0, 0, int(v.Width), int(v.Height)), img.Bounds(), "rotation %d", v.Rotation)

		_, _, _, a := img.At(int(screen.X), int(screen.Y)).RGBA()
		assert.NotZero(t, a, "rotation %d: stroke missing at screen point", v.Rotation)
		_, _, _, a = img.At(int(v.Width)-1-int(screen.X), int(v.Height)-1-int(screen.Y)).RGBA()
		assert.Zero(t, a, "rotation %d: stroke at mirrored point", v.Rotation)
	}
}

func TestEncodeFormats(t *testing.T) {
	l := NewLayer(domain.LayoutLandscape)
	require.NoError(t, l.Apply(Stroke{Points: line(0, 0, 2000, 1414), Width: 40}))
	img, err := Render(l, View{Width: 200, Height: 141})
	require.NoError(t, err)

	data, err := Encode(img, FormatPNG)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	data, err = Encode(img, FormatWebP)
	require.NoError(t, err)
	decoded, err = webp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)
	assert.Equal(t, "image/webp", FormatWebP.MIME())

	_, err = ParseFormat("gif")
	assert.ErrorIs(t, err, domain.ErrBadParams)
}
