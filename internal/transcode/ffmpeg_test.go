package transcode

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// skipIfNoFFmpeg skips the test if ffmpeg or ffprobe is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH, skipping test")
	}
}

// createTestVideo creates a simple test video with a silent audio track.
func createTestVideo(t *testing.T, path string, width, height int, duration float64) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc=size=%dx%d:d=%.1f", width, height, duration),
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=44100:cl=mono:d=%.1f", duration),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test video: %v\noutput: %s", err, output)
	}
}

// probeStream returns a stream entry (e.g. "width", "pix_fmt") of the first
// video stream.
func probeStream(t *testing.T, path, entry string) string {
	t.Helper()

	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream="+entry,
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("ffprobe failed: %v\noutput: %s", err, out)
	}
	return strings.TrimSpace(string(out))
}

func TestNewFFmpegEngine(t *testing.T) {
	t.Run("default paths", func(t *testing.T) {
		e := NewFFmpegEngine("", "")
		if e.ffmpegPath != "ffmpeg" {
			t.Errorf("expected default path 'ffmpeg', got %q", e.ffmpegPath)
		}
		if e.ffprobePath != "ffprobe" {
			t.Errorf("expected default path 'ffprobe', got %q", e.ffprobePath)
		}
	})

	t.Run("custom paths", func(t *testing.T) {
		e := NewFFmpegEngine("/usr/local/bin/ffmpeg", "/usr/local/bin/ffprobe")
		if e.ffmpegPath != "/usr/local/bin/ffmpeg" {
			t.Errorf("expected custom ffmpeg path, got %q", e.ffmpegPath)
		}
	})
}

func TestFFmpegEngine_Run(t *testing.T) {
	skipIfNoFFmpeg(t)

	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "input.mp4")
	createTestVideo(t, input, 640, 480, 2.0)

	engine := NewFFmpegEngine("", "")
	ctx := context.Background()

	t.Run("crop produces the requested rectangle", func(t *testing.T) {
		output := filepath.Join(tmpDir, "cropped.mp4")
		err := engine.Run(ctx, Job{
			InputPath:  input,
			OutputPath: output,
			Filter:     FilterGraph{Crop: CropRegion{X: 10, Y: 10, Width: 200, Height: 150}},
			CopyAudio:  true,
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if got := probeStream(t, output, "width"); got != "200" {
			t.Errorf("output width = %s, want 200", got)
		}
		if got := probeStream(t, output, "height"); got != "150" {
			t.Errorf("output height = %s, want 150", got)
		}
	})

	t.Run("grayscale downcasts the pixel format", func(t *testing.T) {
		output := filepath.Join(tmpDir, "gray.mp4")
		err := engine.Run(ctx, Job{
			InputPath:  input,
			OutputPath: output,
			Filter:     FilterGraph{Crop: CropRegion{X: 0, Y: 0, Width: 320, Height: 240}, Grayscale: true},
			CopyAudio:  true,
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if got := probeStream(t, output, "pix_fmt"); !strings.Contains(got, "gray") {
			t.Errorf("output pix_fmt = %s, want a gray format", got)
		}
	})

	t.Run("oversized rectangle fails with diagnostics", func(t *testing.T) {
		output := filepath.Join(tmpDir, "toobig.mp4")
		err := engine.Run(ctx, Job{
			InputPath:  input,
			OutputPath: output,
			Filter:     FilterGraph{Crop: CropRegion{X: 0, Y: 0, Width: 9999, Height: 9999}},
		})
		if err == nil {
			t.Fatal("expected error for rectangle exceeding frame dimensions")
		}

		var engErr *EngineError
		if !errors.As(err, &engErr) {
			t.Fatalf("expected *EngineError, got %T", err)
		}
		if strings.TrimSpace(engErr.Diagnostic()) == "" {
			t.Error("expected non-empty diagnostic text")
		}
	})

	t.Run("missing input fails with diagnostics", func(t *testing.T) {
		err := engine.Run(ctx, Job{
			InputPath:  filepath.Join(tmpDir, "absent.mp4"),
			OutputPath: filepath.Join(tmpDir, "never.mp4"),
			Filter:     FilterGraph{Crop: CropRegion{Width: 10, Height: 10}},
		})
		var engErr *EngineError
		if !errors.As(err, &engErr) {
			t.Fatalf("expected *EngineError, got %v", err)
		}
	})

	t.Run("cancelled context terminates the child", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := engine.Run(cancelled, Job{
			InputPath:  input,
			OutputPath: filepath.Join(tmpDir, "cancelled.mp4"),
			Filter:     FilterGraph{Crop: CropRegion{Width: 100, Height: 100}},
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestFFmpegEngine_Duration(t *testing.T) {
	skipIfNoFFmpeg(t)

	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "input.mp4")
	createTestVideo(t, input, 64, 64, 2.0)

	engine := NewFFmpegEngine("", "")

	dur, err := engine.Duration(context.Background(), input)
	if err != nil {
		t.Fatalf("Duration() error = %v", err)
	}
	if dur < 1.5 || dur > 2.5 {
		t.Errorf("Duration() = %.2f, want ~2.0", dur)
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := engine.Duration(context.Background(), filepath.Join(tmpDir, "absent.mp4"))
		if !errors.Is(err, ErrProbeExecution) {
			t.Errorf("expected ErrProbeExecution, got %v", err)
		}
	})
}
