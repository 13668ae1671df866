package timeline

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// documentSchema is the YAML shape of a composition file.
type documentSchema struct {
	SceneID  string         `yaml:"scene_id"`
	Settings settingsSchema `yaml:"settings"`
	Tracks   []trackSchema  `yaml:"tracks"`
}

type settingsSchema struct {
	BackgroundColor string  `yaml:"background_color"`
	BackgroundType  string  `yaml:"background_type"`
	CanvasWidth     int     `yaml:"canvas_width"`
	CanvasHeight    int     `yaml:"canvas_height"`
	BlurIntensity   int     `yaml:"blur_intensity"`
	FPS             float64 `yaml:"fps"`
}

type trackSchema struct {
	Muted    bool            `yaml:"muted"`
	Elements []elementSchema `yaml:"elements"`
}

// elementSchema is the union of fields across element kinds; Kind
// selects the variant.
type elementSchema struct {
	Kind     string  `yaml:"kind"`
	ID       string  `yaml:"id"`
	Start    float64 `yaml:"start"`
	TrimIn   float64 `yaml:"trim_in"`
	TrimOut  float64 `yaml:"trim_out"`
	Duration float64 `yaml:"duration"`
	Hidden   bool    `yaml:"hidden"`

	// Media fields
	MediaID string `yaml:"media_id"`

	// Text fields
	Content         string  `yaml:"content"`
	FontFamily      string  `yaml:"font_family"`
	FontSize        float64 `yaml:"font_size"`
	Color           string  `yaml:"color"`
	BackgroundColor string  `yaml:"background_color"`
	X               float64 `yaml:"x"`
	Y               float64 `yaml:"y"`
	Rotation        float64 `yaml:"rotation"`
	Opacity         float64 `yaml:"opacity"`
}

// LoadSnapshot reads a composition document from a YAML file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read composition: %w", err)
	}
	return ParseSnapshot(data)
}

// ParseSnapshot parses a composition document from YAML data.
// Elements declared without an id are assigned a fresh one.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var doc documentSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse composition: %w", err)
	}

	snap := &Snapshot{
		SceneID: doc.SceneID,
		Settings: ProjectSettings{
			BackgroundColor: doc.Settings.BackgroundColor,
			BackgroundType:  doc.Settings.BackgroundType,
			CanvasWidth:     doc.Settings.CanvasWidth,
			CanvasHeight:    doc.Settings.CanvasHeight,
			BlurIntensity:   doc.Settings.BlurIntensity,
			FPS:             doc.Settings.FPS,
		},
	}

	for ti, tr := range doc.Tracks {
		track := Track{Muted: tr.Muted}
		for ei, el := range tr.Elements {
			built, err := buildElement(el)
			if err != nil {
				return nil, fmt.Errorf("track %d element %d: %w", ti, ei, err)
			}
			track.Elements = append(track.Elements, built)
		}
		snap.Tracks = append(snap.Tracks, track)
	}

	return snap, nil
}

func buildElement(el elementSchema) (Element, error) {
	base := ElementBase{
		ID:       el.ID,
		Start:    el.Start,
		TrimIn:   el.TrimIn,
		TrimOut:  el.TrimOut,
		Duration: el.Duration,
		Hidden:   el.Hidden,
	}
	if base.ID == "" {
		base.ID = uuid.NewString()
	}

	switch el.Kind {
	case "media":
		if el.MediaID == "" {
			return nil, fmt.Errorf("media element requires media_id")
		}
		return MediaElement{ElementBase: base, MediaID: el.MediaID}, nil
	case "text":
		opacity := el.Opacity
		if opacity == 0 {
			opacity = 1.0
		}
		return TextElement{
			ElementBase:     base,
			Content:         el.Content,
			FontFamily:      el.FontFamily,
			FontSize:        el.FontSize,
			Color:           el.Color,
			BackgroundColor: el.BackgroundColor,
			X:               el.X,
			Y:               el.Y,
			Rotation:        el.Rotation,
			Opacity:         opacity,
		}, nil
	default:
		return nil, fmt.Errorf("unknown element kind %q", el.Kind)
	}
}
