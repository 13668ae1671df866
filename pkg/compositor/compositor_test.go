package compositor

import (
	"context"
	"image/color"
	"testing"

	"github.com/user/previewcache/pkg/adapters/logger"
	"github.com/user/previewcache/pkg/mediacursor"
	"github.com/user/previewcache/pkg/mocks"
	"github.com/user/previewcache/pkg/ports"
	"github.com/user/previewcache/pkg/timeline"
)

func testSnapshot() *timeline.Snapshot {
	return &timeline.Snapshot{
		Tracks: []timeline.Track{
			{
				Elements: []timeline.Element{
					timeline.MediaElement{
						ElementBase: timeline.ElementBase{ID: "clip-1", Start: 0, Duration: 10},
						MediaID:     "clip.mp4",
					},
				},
			},
			{
				Elements: []timeline.Element{
					timeline.TextElement{
						ElementBase:     timeline.ElementBase{ID: "title-1", Start: 0, Duration: 10},
						Content:         "Hello",
						FontSize:        32,
						Color:           "#ffffff",
						BackgroundColor: "#000000",
						X:               320,
						Y:               180,
					},
				},
			},
		},
		Settings: timeline.ProjectSettings{BackgroundColor: "#101010", CanvasWidth: 640, CanvasHeight: 360},
	}
}

func scriptedFrames(n int) []ports.VideoFrame {
	frames := make([]ports.VideoFrame, n)
	for i := range frames {
		frames[i] = ports.VideoFrame{TimestampMs: i * 100, Duration: 100}
	}
	return frames
}

// newTestCompositor wires a recording canvas behind the mock renderer.
func newTestCompositor(resolve SourceResolver) (*Compositor, *mocks.Canvas) {
	canvas := &mocks.Canvas{}
	renderer := &mocks.Renderer{
		CreateCanvasFunc: func(width, height int, bg color.Color) ports.Canvas {
			return canvas
		},
	}
	cursor := mediacursor.NewManager(mediacursor.Options{}, logger.NewNoop(), nil)
	return New(renderer, cursor, resolve, logger.NewNoop()), canvas
}

func TestRender_DrawsMediaAndText(t *testing.T) {
	src := &mocks.ScriptedSource{Frames: scriptedFrames(100)}
	comp, canvas := newTestCompositor(func(mediaID string) ports.MediaSource { return src })

	img, err := comp.Render(context.Background(), testSnapshot(), 1.0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img == nil {
		t.Fatalf("expected a frame image")
	}
	if canvas.ImagesDrawn != 1 {
		t.Errorf("expected one media frame drawn, got %d", canvas.ImagesDrawn)
	}
	if len(canvas.TextsDrawn) != 1 || canvas.TextsDrawn[0] != "Hello" {
		t.Errorf("expected the text overlay drawn, got %v", canvas.TextsDrawn)
	}
	if canvas.RectsDrawn != 1 {
		t.Errorf("expected the text background drawn, got %d rects", canvas.RectsDrawn)
	}
}

func TestRender_TrimShiftsMediaTime(t *testing.T) {
	src := &mocks.ScriptedSource{Frames: scriptedFrames(100)}
	comp, _ := newTestCompositor(func(mediaID string) ports.MediaSource { return src })

	snap := testSnapshot()
	el := snap.Tracks[0].Elements[0].(timeline.MediaElement)
	el.Start = 1.0
	el.TrimIn = 2.0
	snap.Tracks[0].Elements[0] = el

	if _, err := comp.Render(context.Background(), snap, 1.5); err != nil {
		t.Fatalf("Render: %v", err)
	}

	// Timeline 1.5s maps to media-local 2.5s.
	frame, err := comp.cursor.FrameAt(context.Background(), "clip.mp4", src, 2.5)
	if err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	if frame.TimestampMs != 2500 {
		t.Errorf("expected the cursor positioned at 2.5s, got %dms", frame.TimestampMs)
	}
}

func TestRender_MissingSourceDegradesToBackground(t *testing.T) {
	comp, canvas := newTestCompositor(func(mediaID string) ports.MediaSource { return nil })

	img, err := comp.Render(context.Background(), testSnapshot(), 1.0)
	if err != nil {
		t.Fatalf("a missing source must not fail the frame: %v", err)
	}
	if img == nil {
		t.Fatalf("expected a frame image")
	}
	if canvas.ImagesDrawn != 0 {
		t.Errorf("expected no media drawn, got %d", canvas.ImagesDrawn)
	}
	if len(canvas.TextsDrawn) != 1 {
		t.Errorf("other elements must still draw, got %v", canvas.TextsDrawn)
	}
}

func TestRender_NilResolver(t *testing.T) {
	comp, canvas := newTestCompositor(nil)

	if _, err := comp.Render(context.Background(), testSnapshot(), 1.0); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if canvas.ImagesDrawn != 0 {
		t.Errorf("expected no media drawn without a resolver, got %d", canvas.ImagesDrawn)
	}
}

func TestRender_InactiveElementsSkipped(t *testing.T) {
	src := &mocks.ScriptedSource{Frames: scriptedFrames(100)}
	comp, canvas := newTestCompositor(func(mediaID string) ports.MediaSource { return src })

	// Both elements end at t=10.
	if _, err := comp.Render(context.Background(), testSnapshot(), 11.0); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if canvas.ImagesDrawn != 0 || len(canvas.TextsDrawn) != 0 {
		t.Errorf("expected nothing drawn past the elements' windows")
	}
}

func TestRender_CanceledContext(t *testing.T) {
	comp, _ := newTestCompositor(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := comp.Render(ctx, testSnapshot(), 1.0); err == nil {
		t.Fatalf("expected an error for a canceled context")
	}
}

func TestRenderFunc_BindsSnapshot(t *testing.T) {
	comp, canvas := newTestCompositor(nil)
	render := comp.RenderFunc(testSnapshot())

	if _, err := render(context.Background(), 1.0); err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(canvas.TextsDrawn) != 1 {
		t.Errorf("expected the bound snapshot's text drawn, got %v", canvas.TextsDrawn)
	}
}
