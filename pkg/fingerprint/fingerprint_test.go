package fingerprint

import (
	"testing"

	"github.com/user/previewcache/pkg/timeline"
)

func testSnapshot() *timeline.Snapshot {
	return &timeline.Snapshot{
		Tracks: []timeline.Track{
			{
				Elements: []timeline.Element{
					timeline.MediaElement{
						ElementBase: timeline.ElementBase{ID: "clip-1", Start: 0, Duration: 10},
						MediaID:     "intro.mp4",
					},
				},
			},
			{
				Elements: []timeline.Element{
					timeline.TextElement{
						ElementBase: timeline.ElementBase{ID: "title-1", Start: 1, Duration: 4},
						Content:     "Hello",
						FontSize:    32,
						Color:       "#ffffff",
						X:           100,
						Y:           50,
						Opacity:     1,
					},
				},
			},
		},
		Settings: timeline.ProjectSettings{
			BackgroundColor: "#000000",
			BackgroundType:  "color",
			CanvasWidth:     1280,
			CanvasHeight:    720,
			FPS:             30,
		},
	}
}

func TestCompute_Deterministic(t *testing.T) {
	engine := New(30)
	snap := testSnapshot()

	a := engine.Compute(snap, 2.0)
	b := engine.Compute(snap, 2.0)
	if a != b {
		t.Errorf("expected identical fingerprints, got %s and %s", a, b)
	}
}

func TestCompute_SameBucketSameFingerprint(t *testing.T) {
	engine := New(30)
	snap := testSnapshot()

	// 2.001 and 2.02 both land in bucket 60 at resolution 30.
	a := engine.Compute(snap, 2.001)
	b := engine.Compute(snap, 2.02)
	if a != b {
		t.Errorf("times in the same bucket should share a fingerprint")
	}

	c := engine.Compute(snap, 2.05)
	if a == c {
		t.Errorf("times in different buckets should not share a fingerprint")
	}
}

func TestCompute_MutedTrackExcluded(t *testing.T) {
	engine := New(30)

	withMuted := testSnapshot()
	withMuted.Tracks[1].Muted = true

	withoutTrack := testSnapshot()
	withoutTrack.Tracks = withoutTrack.Tracks[:1]

	a := engine.Compute(withMuted, 2.0)
	b := engine.Compute(withoutTrack, 2.0)
	if a != b {
		t.Errorf("a muted track must be indistinguishable from its absence")
	}
}

func TestCompute_HiddenElementExcluded(t *testing.T) {
	engine := New(30)

	withHidden := testSnapshot()
	el := withHidden.Tracks[1].Elements[0].(timeline.TextElement)
	el.Hidden = true
	withHidden.Tracks[1].Elements[0] = el

	withoutElement := testSnapshot()
	withoutElement.Tracks[1].Elements = nil

	a := engine.Compute(withHidden, 2.0)
	b := engine.Compute(withoutElement, 2.0)
	if a != b {
		t.Errorf("a hidden element must be indistinguishable from its absence")
	}
}

func TestCompute_InactiveElementExcluded(t *testing.T) {
	engine := New(30)
	snap := testSnapshot()

	// At t=0.5 the text element (window [1,5)) is not active yet.
	a := engine.Compute(snap, 0.5)

	trimmed := testSnapshot()
	trimmed.Tracks[1].Elements = nil
	b := engine.Compute(trimmed, 0.5)

	if a != b {
		t.Errorf("inactive elements must not enter the fingerprint")
	}
}

func TestCompute_TrimShortensWindow(t *testing.T) {
	engine := New(30)

	snap := testSnapshot()
	el := snap.Tracks[0].Elements[0].(timeline.MediaElement)
	el.TrimOut = 8 // window becomes [0, 2)
	snap.Tracks[0].Elements[0] = el

	full := testSnapshot()

	// At t=3 the trimmed clip is inactive, the full one is active.
	if engine.Compute(snap, 3.0) == engine.Compute(full, 3.0) {
		t.Errorf("trim bounds must affect the active window")
	}
}

func TestCompute_SettingsAffectFingerprint(t *testing.T) {
	engine := New(30)

	a := testSnapshot()
	b := testSnapshot()
	b.Settings.BackgroundColor = "#ff0000"

	if engine.Compute(a, 2.0) == engine.Compute(b, 2.0) {
		t.Errorf("background color change must change the fingerprint")
	}
}

func TestCompute_SceneAffectsFingerprint(t *testing.T) {
	engine := New(30)

	a := testSnapshot()
	b := testSnapshot()
	b.SceneID = "scene-2"

	if engine.Compute(a, 2.0) == engine.Compute(b, 2.0) {
		t.Errorf("scene id change must change the fingerprint")
	}
}

func TestCompute_EmptyActiveSet(t *testing.T) {
	engine := New(30)
	snap := &timeline.Snapshot{
		Settings: timeline.ProjectSettings{BackgroundColor: "#202020"},
	}

	a := engine.Compute(snap, 0)
	b := engine.Compute(snap, 0)
	if a != b {
		t.Errorf("empty active set must fingerprint deterministically")
	}

	populated := testSnapshot()
	if a == engine.Compute(populated, 2.0) {
		t.Errorf("empty active set must be distinct from a populated one")
	}
}

func TestBucket(t *testing.T) {
	engine := New(30)

	cases := []struct {
		t    float64
		want int64
	}{
		{0, 0},
		{0.0333, 0},
		{0.0334, 1},
		{1.0, 30},
		{2.999, 89},
	}
	for _, c := range cases {
		if got := engine.Bucket(c.t); got != c.want {
			t.Errorf("Bucket(%v) = %d, want %d", c.t, got, c.want)
		}
	}
}

func TestBucket_LeftEdgeRoundTrip(t *testing.T) {
	engine := New(30)
	for b := int64(0); b < 300; b++ {
		if got := engine.Bucket(engine.BucketTime(b)); got != b {
			t.Fatalf("bucket %d round-tripped to %d", b, got)
		}
	}
}
