package timeline

// Track is an ordered lane of elements. A muted track contributes
// nothing to the rendered output.
type Track struct {
	Muted    bool
	Elements []Element
}

// ProjectSettings holds the project-level fields that affect every
// rendered frame.
type ProjectSettings struct {
	BackgroundColor string
	BackgroundType  string
	CanvasWidth     int
	CanvasHeight    int
	BlurIntensity   int
	FPS             float64
}

// Snapshot is a read-only view of the composition at one instant.
// Track and element order is the canonical iteration order for
// fingerprinting.
type Snapshot struct {
	Tracks   []Track
	Settings ProjectSettings
	SceneID  string
}

// ActiveElements returns the elements whose visible window contains t,
// in canonical track/element order. Muted tracks and hidden elements
// are skipped.
func (s *Snapshot) ActiveElements(t float64) []Element {
	var active []Element
	for _, track := range s.Tracks {
		if track.Muted {
			continue
		}
		for _, el := range track.Elements {
			if el.Base().Hidden {
				continue
			}
			if el.Base().ActiveAt(t) {
				active = append(active, el)
			}
		}
	}
	return active
}
