package framecache

import (
	"image"
	"testing"

	"github.com/user/previewcache/pkg/adapters/logger"
	"github.com/user/previewcache/pkg/timeline"
)

func testFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 4, 4))
}

func testSnapshot() *timeline.Snapshot {
	return &timeline.Snapshot{
		Tracks: []timeline.Track{
			{
				Elements: []timeline.Element{
					timeline.MediaElement{
						ElementBase: timeline.ElementBase{ID: "clip-1", Start: 0, Duration: 60},
						MediaID:     "clip.mp4",
					},
				},
			},
		},
		Settings: timeline.ProjectSettings{BackgroundColor: "#000000", CanvasWidth: 640, CanvasHeight: 360},
	}
}

func newTestCache(capacity int) *Cache {
	return New(Options{Capacity: capacity, Resolution: 30}, logger.NewNoop(), nil)
}

func TestPutGet(t *testing.T) {
	cache := newTestCache(10)
	snap := testSnapshot()
	frame := testFrame()

	cache.Put(1.0, snap, frame)

	got, ok := cache.Get(1.0, snap)
	if !ok {
		t.Fatalf("expected a cache hit")
	}
	if got != frame {
		t.Errorf("expected the stored frame back")
	}
	if cache.Size() != 1 {
		t.Errorf("expected size 1, got %d", cache.Size())
	}
}

func TestGet_MissOnEmptyCache(t *testing.T) {
	cache := newTestCache(10)
	if _, ok := cache.Get(1.0, testSnapshot()); ok {
		t.Errorf("expected a miss on an empty cache")
	}
}

func TestGet_SameBucketHit(t *testing.T) {
	cache := newTestCache(10)
	snap := testSnapshot()

	cache.Put(1.0, snap, testFrame())

	// 1.02 shares bucket 30 with 1.0 at resolution 30.
	if _, ok := cache.Get(1.02, snap); !ok {
		t.Errorf("expected a hit for a time in the same bucket")
	}
}

func TestGet_StaleEntryRemoved(t *testing.T) {
	cache := newTestCache(10)
	snap := testSnapshot()
	cache.Put(1.0, snap, testFrame())

	changed := testSnapshot()
	changed.Settings.BackgroundColor = "#ff0000"

	if cache.IsCached(1.0, changed) {
		t.Errorf("entry must not validate against a changed composition")
	}
	if _, ok := cache.Get(1.0, changed); ok {
		t.Fatalf("expected a miss after a render-affecting change")
	}
	if cache.Size() != 0 {
		t.Errorf("stale entry must be removed eagerly, size = %d", cache.Size())
	}
}

func TestIsCached_NoMutation(t *testing.T) {
	cache := newTestCache(10)
	snap := testSnapshot()
	cache.Put(1.0, snap, testFrame())

	changed := testSnapshot()
	changed.Settings.BackgroundColor = "#ff0000"

	cache.IsCached(1.0, changed)
	if cache.Size() != 1 {
		t.Errorf("IsCached must not remove entries, size = %d", cache.Size())
	}
}

func TestPut_OverwriteSameBucket(t *testing.T) {
	cache := newTestCache(10)
	snap := testSnapshot()

	cache.Put(1.0, snap, testFrame())
	replacement := testFrame()
	cache.Put(1.0, snap, replacement)

	if cache.Size() != 1 {
		t.Errorf("overwriting a bucket must not grow the cache, size = %d", cache.Size())
	}
	got, _ := cache.Get(1.0, snap)
	if got != replacement {
		t.Errorf("last writer for a bucket must win")
	}
}

func TestCapacityInvariant(t *testing.T) {
	cache := newTestCache(10)
	snap := testSnapshot()

	for i := 0; i < 13; i++ {
		cache.Put(float64(i), snap, testFrame())
		if cache.Size() > 10 {
			t.Fatalf("size %d exceeds capacity after put %d", cache.Size(), i)
		}
	}
}

func TestBatchEviction(t *testing.T) {
	cache := newTestCache(10)
	snap := testSnapshot()

	for i := 0; i < 10; i++ {
		cache.Put(float64(i), snap, testFrame())
	}

	// The 11th insert must evict a batch (20% of 10 = 2), not a single
	// entry.
	cache.Put(10.0, snap, testFrame())
	if cache.Size() != 9 {
		t.Errorf("expected batch eviction to leave 9 entries, got %d", cache.Size())
	}
}

func TestEviction_OldestRemoved(t *testing.T) {
	cache := newTestCache(10)
	snap := testSnapshot()

	for i := 0; i < 13; i++ {
		cache.Put(float64(i), snap, testFrame())
	}

	if cache.Size() > 10 {
		t.Fatalf("size %d exceeds capacity", cache.Size())
	}
	for i := 0; i < 3; i++ {
		if _, ok := cache.Get(float64(i), snap); ok {
			t.Errorf("expected the oldest key %d to be evicted", i)
		}
	}
	if _, ok := cache.Get(12.0, snap); !ok {
		t.Errorf("expected the newest key to survive eviction")
	}
}

func TestEviction_AccessRefreshProtects(t *testing.T) {
	cache := newTestCache(10)
	snap := testSnapshot()

	for i := 0; i < 10; i++ {
		cache.Put(float64(i), snap, testFrame())
	}

	// Refresh key 0 so key 1 and 2 become the eviction victims.
	if _, ok := cache.Get(0.0, snap); !ok {
		t.Fatalf("expected key 0 to be cached")
	}

	cache.Put(10.0, snap, testFrame())

	if _, ok := cache.Get(0.0, snap); !ok {
		t.Errorf("recently accessed entry must survive eviction")
	}
	if _, ok := cache.Get(1.0, snap); ok {
		t.Errorf("least recently accessed entry must be evicted")
	}
}

func TestInvalidateAll(t *testing.T) {
	cache := newTestCache(10)
	snap := testSnapshot()

	for i := 0; i < 5; i++ {
		cache.Put(float64(i), snap, testFrame())
	}
	cache.InvalidateAll()

	if cache.Size() != 0 {
		t.Errorf("expected empty cache, size = %d", cache.Size())
	}
	if _, ok := cache.Get(0.0, snap); ok {
		t.Errorf("expected a miss after InvalidateAll")
	}
}
