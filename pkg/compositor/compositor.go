// Package compositor builds the reference render function: it turns a
// composition snapshot and a point in time into a raster frame, using
// the decode cursor manager for media elements and a ports.Renderer
// for drawing. The preview engine treats the result as any other
// host-supplied render function.
package compositor

import (
	"context"
	"image"

	"github.com/user/previewcache/pkg/config"
	"github.com/user/previewcache/pkg/mediacursor"
	"github.com/user/previewcache/pkg/ports"
	"github.com/user/previewcache/pkg/timeline"
)

// Fallback canvas dimensions when the project settings leave them
// unset.
const (
	defaultCanvasWidth  = 1280
	defaultCanvasHeight = 720
)

// SourceResolver maps a media identity to its opened media source.
// Returning nil skips the element.
type SourceResolver func(mediaID string) ports.MediaSource

// Compositor renders frames of a composition.
type Compositor struct {
	renderer ports.Renderer
	cursor   *mediacursor.Manager
	resolve  SourceResolver
	logger   ports.Logger
}

// New creates a Compositor. resolve may be nil when the composition
// has no media elements.
func New(renderer ports.Renderer, cursor *mediacursor.Manager, resolve SourceResolver, logger ports.Logger) *Compositor {
	return &Compositor{
		renderer: renderer,
		cursor:   cursor,
		resolve:  resolve,
		logger:   logger.WithComponent("compositor"),
	}
}

// RenderFunc binds the compositor to one snapshot, yielding the
// render function the cache engine consumes.
func (c *Compositor) RenderFunc(snap *timeline.Snapshot) ports.RenderFunc {
	return func(ctx context.Context, t float64) (image.Image, error) {
		return c.Render(ctx, snap, t)
	}
}

// Render composes the frame at time t: background, then each active
// element in canonical track order. A media element whose decode fails
// degrades to a placeholder so one broken source cannot take down the
// whole frame.
func (c *Compositor) Render(ctx context.Context, snap *timeline.Snapshot, t float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width := snap.Settings.CanvasWidth
	height := snap.Settings.CanvasHeight
	if width <= 0 {
		width = defaultCanvasWidth
	}
	if height <= 0 {
		height = defaultCanvasHeight
	}

	bg := config.ParseColor(snap.Settings.BackgroundColor)
	canvas := c.renderer.CreateCanvas(width, height, bg)

	for _, el := range snap.ActiveElements(t) {
		switch v := el.(type) {
		case timeline.MediaElement:
			c.drawMedia(ctx, canvas, v, t, width, height)
		case timeline.TextElement:
			c.drawText(canvas, v)
		}
	}

	return canvas.ToImage(), nil
}

// drawMedia extracts the media frame covering t and scales it onto the
// canvas.
func (c *Compositor) drawMedia(ctx context.Context, canvas ports.Canvas, el timeline.MediaElement, t float64, width, height int) {
	var source ports.MediaSource
	if c.resolve != nil {
		source = c.resolve(el.MediaID)
	}
	if source == nil || c.cursor == nil {
		c.logger.Debug("No source for media %s", el.MediaID)
		return
	}

	// Timeline time to media-local time, honoring the leading trim.
	local := t - el.Start + el.TrimIn

	frame, err := c.cursor.FrameAt(ctx, el.MediaID, source, local)
	if err != nil {
		c.logger.Warn("Media %s unavailable: %s", el.MediaID, err)
		return
	}

	canvas.DrawImageScaled(frame.Image, 0, 0, width, height)
}

// drawText draws a text overlay with its background and style.
func (c *Compositor) drawText(canvas ports.Canvas, el timeline.TextElement) {
	style := ports.TextStyle{
		FontSize: el.FontSize,
		Color:    config.ParseColor(el.Color),
		Align:    ports.AlignCenter,
	}
	if style.FontSize <= 0 {
		style.FontSize = 24
	}

	if el.BackgroundColor != "" {
		w, h := canvas.MeasureText(el.Content, style)
		pad := int(style.FontSize / 2)
		canvas.DrawRect(int(el.X)-int(w)/2-pad, int(el.Y)-int(h)/2-pad,
			int(w)+2*pad, int(h)+2*pad, config.ParseColor(el.BackgroundColor))
	}

	canvas.DrawText(el.Content, int(el.X), int(el.Y), style)
}
