// Package transcode invokes the external media engine to produce derived
// videos. The engine binary is a black box reached through the Engine
// interface so tests can swap it for a fake without spawning processes.
package transcode

import (
	"context"
	"fmt"
)

// CropRegion is a rectangle in source pixel coordinates.
// No upper bound is checked against the actual frame geometry; the engine
// rejects out-of-range rectangles itself.
type CropRegion struct {
	X      int
	Y      int
	Width  int
	Height int
}

// FilterGraph describes the transform chain handed to the engine:
// a crop, optionally followed by a pixel-format downcast to single-channel
// luma. The downcast (format=gray) is the grayscale contract; it is
// deterministic and avoids the rounding ambiguity of a channel-mixing
// matrix.
type FilterGraph struct {
	Crop      CropRegion
	Grayscale bool
}

// String renders the graph in the engine's filter syntax.
func (g FilterGraph) String() string {
	s := fmt.Sprintf("crop=%d:%d:%d:%d", g.Crop.Width, g.Crop.Height, g.Crop.X, g.Crop.Y)
	if g.Grayscale {
		s += ",format=gray"
	}
	return s
}

// Job is one engine invocation: read InputPath, apply Filter, write
// OutputPath. CopyAudio carries the audio stream through unmodified
// instead of re-encoding it.
type Job struct {
	InputPath  string
	OutputPath string
	Filter     FilterGraph
	CopyAudio  bool
}

// Engine runs transcode jobs. A failed run must leave diagnostics in the
// returned error; partial output files are the caller's to discard.
type Engine interface {
	Run(ctx context.Context, job Job) error
}

// Prober extracts metadata from media files.
type Prober interface {
	// Duration returns the duration in seconds of the media file at path.
	Duration(ctx context.Context, path string) (float64, error)
}
