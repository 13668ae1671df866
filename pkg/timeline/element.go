// Package timeline defines the composition model the preview core reads:
// tracks of timed elements plus project-level settings. The core never
// mutates a snapshot; the host supplies a fresh one per query.
package timeline

// ElementKind identifies the variant of an Element.
type ElementKind int

const (
	// KindMedia is a clip backed by a media source.
	KindMedia ElementKind = iota
	// KindText is a styled text overlay.
	KindText
)

// String returns the string representation of the element kind.
func (k ElementKind) String() string {
	switch k {
	case KindMedia:
		return "media"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// ElementBase holds the timing fields common to all element kinds.
// All times are in seconds.
type ElementBase struct {
	ID       string
	Start    float64
	TrimIn   float64
	TrimOut  float64
	Duration float64
	Hidden   bool
}

// VisibleWindow returns the half-open window [start, end) during which
// the element contributes to the output.
func (b ElementBase) VisibleWindow() (start, end float64) {
	return b.Start, b.Start + b.Duration - b.TrimIn - b.TrimOut
}

// ActiveAt reports whether the element's visible window contains t.
func (b ElementBase) ActiveAt(t float64) bool {
	start, end := b.VisibleWindow()
	return t >= start && t < end
}

// Element is the tagged union over media and text elements. It is a
// sealed interface: the fingerprint engine and the renderer dispatch
// exhaustively over MediaElement and TextElement.
type Element interface {
	Kind() ElementKind
	Base() ElementBase
	sealed()
}

// MediaElement is a clip that draws frames from a media source.
type MediaElement struct {
	ElementBase
	MediaID string
}

// Kind returns KindMedia.
func (e MediaElement) Kind() ElementKind { return KindMedia }

// Base returns the common timing fields.
func (e MediaElement) Base() ElementBase { return e.ElementBase }

func (e MediaElement) sealed() {}

// TextElement is a styled text overlay.
type TextElement struct {
	ElementBase
	Content         string
	FontFamily      string
	FontSize        float64
	Color           string
	BackgroundColor string
	X               float64
	Y               float64
	Rotation        float64
	Opacity         float64
}

// Kind returns KindText.
func (e TextElement) Kind() ElementKind { return KindText }

// Base returns the common timing fields.
func (e TextElement) Base() ElementBase { return e.ElementBase }

func (e TextElement) sealed() {}
