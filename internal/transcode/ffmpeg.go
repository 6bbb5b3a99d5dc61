package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrProbeExecution is returned when the ffprobe command fails.
var ErrProbeExecution = errors.New("ffprobe execution failed")

// FFmpegEngine implements Engine and Prober using the ffmpeg CLI.
type FFmpegEngine struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFmpegEngine creates a new FFmpegEngine.
// Empty paths default to "ffmpeg" and "ffprobe" (found via PATH).
func NewFFmpegEngine(ffmpegPath, ffprobePath string) *FFmpegEngine {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegEngine{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// buildArgs translates a Job into the ffmpeg argument list.
func buildArgs(job Job) []string {
	args := []string{
		"-y",                // Overwrite output file without asking
		"-i", job.InputPath, // Input file
		"-vf", job.Filter.String(), // Video filter graph
	}
	if job.CopyAudio {
		args = append(args, "-c:a", "copy") // Pass the audio stream through untouched
	}
	return append(args, job.OutputPath)
}

// Run executes ffmpeg for the given job. Standard output and standard
// error are captured in full so diagnostics survive failure.
func (e *FFmpegEngine) Run(ctx context.Context, job Job) error {
	return e.runFFmpeg(ctx, buildArgs(job))
}

// runFFmpeg executes ffmpeg with the given arguments and returns an
// *EngineError containing the captured output if the command fails.
func (e *FFmpegEngine) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &EngineError{
			Args:   args,
			Stdout: stdout.String(),
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// EngineError represents a failed engine invocation, including the full
// captured output.
type EngineError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Diagnostic returns the engine's raw diagnostic text. ffmpeg writes its
// diagnostics to stderr; stdout is included as a fallback when stderr is
// empty.
func (e *EngineError) Diagnostic() string {
	if strings.TrimSpace(e.Stderr) != "" {
		return e.Stderr
	}
	return e.Stdout
}

// Duration returns the duration in seconds of a media file.
// It uses ffprobe to extract the duration metadata.
func (e *FFmpegEngine) Duration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrProbeExecution, err, stderr.String())
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(stdout.String()), "%f", &duration)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}

	return duration, nil
}
