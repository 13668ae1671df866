package ports

import (
	"context"
	"image"
)

// RenderFunc produces the composed raster frame for a point on the
// timeline. It is supplied by the host, must be side-effect free with
// respect to the cache, and may internally consult the decode cursor
// manager for media elements. Every invocation is a suspension point:
// the core tolerates arbitrary delay without corrupting cache state.
type RenderFunc func(ctx context.Context, t float64) (image.Image, error)
