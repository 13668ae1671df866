package mocks

import (
	"image"
	"image/color"

	"github.com/user/previewcache/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	ResizeImageFunc  func(img image.Image, width, height int) image.Image
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	return &Canvas{width: width, height: height}
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is a mock implementation of ports.Canvas. It records draw
// calls so tests can assert on composition behavior.
type Canvas struct {
	width  int
	height int

	ImagesDrawn int
	RectsDrawn  int
	TextsDrawn  []string
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	m.ImagesDrawn++
}

func (m *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	m.ImagesDrawn++
}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {
	m.RectsDrawn++
}

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.TextsDrawn = append(m.TextsDrawn, text)
}

func (m *Canvas) MeasureText(text string, style ports.TextStyle) (width, height float64) {
	return float64(len(text)) * style.FontSize / 2, style.FontSize
}

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.width, m.height))
}

var _ ports.Canvas = (*Canvas)(nil)
