// Package main provides the CLI entry point for previewcache.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/user/previewcache/pkg/adapters/filesink"
	"github.com/user/previewcache/pkg/adapters/ggrenderer"
	"github.com/user/previewcache/pkg/adapters/logger"
	"github.com/user/previewcache/pkg/adapters/mp4source"
	"github.com/user/previewcache/pkg/adapters/nullsink"
	"github.com/user/previewcache/pkg/adapters/osfilesystem"
	"github.com/user/previewcache/pkg/compositor"
	"github.com/user/previewcache/pkg/config"
	"github.com/user/previewcache/pkg/metrics"
	"github.com/user/previewcache/pkg/ports"
	"github.com/user/previewcache/pkg/preview"
	"github.com/user/previewcache/pkg/timeline"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "previewcache",
		Usage:   "Frame cache engine for timeline compositions",
		Version: version,
		Commands: []*cli.Command{
			renderCommand(),
			probeCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render a composition to a PNG frame sequence through the cache engine",
		ArgsUsage: "COMPOSITION.yaml",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "./out", Usage: "Output directory"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Configuration YAML file"},
			&cli.Float64Flag{Name: "from", Value: 0, Usage: "Start time in seconds"},
			&cli.Float64Flag{Name: "to", Value: 5, Usage: "End time in seconds"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Exercise the cache engine without writing frames"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error, quiet)"},
		},
		Action: runRender,
	}
}

func runRender(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("composition file required")
	}
	compositionPath := c.Args().First()

	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	log := logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))

	snap, err := timeline.LoadSnapshot(compositionPath)
	if err != nil {
		log.Error("Failed to load composition: %s", err)
		return err
	}

	var sink ports.DebugSink = nullsink.New()
	if !c.Bool("dry-run") {
		sink = filesink.New(c.String("out"), osfilesystem.New())
	}
	m := metrics.New(prometheus.NewRegistry())

	engine := preview.New(cfg, &ports.SleepYielder{}, sink, log, m)
	defer engine.Close()

	resolve := mediaResolver(compositionPath, snap)
	comp := compositor.New(ggrenderer.New(), engine.Cursor(), resolve, log)
	render := comp.RenderFunc(snap)

	log.Info("Preview engine started")

	// The engine's debug sink writes each freshly rendered frame, so
	// walking the range bucket by bucket materializes the sequence.
	step := 1.0 / float64(cfg.CacheResolution)
	count := 0
	for t := c.Float64("from"); t < c.Float64("to"); t += step {
		if _, err := engine.FrameAt(c.Context, t, snap, render); err != nil {
			log.Error("Failed to render frame: %s", err)
			return err
		}
		count++
	}

	if err := engine.WriteReport(); err != nil {
		log.Warn("Failed to write report: %s", err)
	}

	log.Info("Rendered %d frames to %s", count, c.String("out"))
	return nil
}

// mediaResolver opens one mp4 source per media identity referenced by
// the composition. Media ids resolve as paths relative to the
// composition file. Pixel decoding needs an external sample decoder;
// without one, media elements degrade to the background.
func mediaResolver(compositionPath string, snap *timeline.Snapshot) compositor.SourceResolver {
	baseDir := filepath.Dir(compositionPath)
	sources := make(map[string]ports.MediaSource)

	for _, track := range snap.Tracks {
		for _, el := range track.Elements {
			media, ok := el.(timeline.MediaElement)
			if !ok {
				continue
			}
			if _, exists := sources[media.MediaID]; exists {
				continue
			}
			path := media.MediaID
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			sources[media.MediaID] = mp4source.New(path, noPixelDecoder)
		}
	}

	return func(mediaID string) ports.MediaSource {
		return sources[mediaID]
	}
}

func noPixelDecoder(codec mp4source.Codec) (ports.SampleDecoder, error) {
	return nil, fmt.Errorf("no %s sample decoder configured", codec)
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "Inspect an MP4 file's video track without decoding",
		ArgsUsage: "FILE.mp4",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("media file required")
			}
			info, err := mp4source.Probe(c.Args().First())
			if err != nil {
				return err
			}
			fmt.Printf("codec:     %s\n", info.Codec)
			fmt.Printf("size:      %dx%d\n", info.Width, info.Height)
			fmt.Printf("duration:  %.3fs\n", info.DurationSec)
			fmt.Printf("samples:   %d\n", info.Samples)
			fmt.Printf("keyframes: %d\n", info.Keyframes)
			return nil
		},
	}
}
