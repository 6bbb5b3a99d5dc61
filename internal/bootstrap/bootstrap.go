// Package bootstrap provides dependency initialization for the video crop API.
package bootstrap

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/videocrop/videocrop-api/internal/asset"
	"github.com/videocrop/videocrop-api/internal/config"
	"github.com/videocrop/videocrop-api/internal/transcode"
	"github.com/videocrop/videocrop-api/internal/video"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	VideoService *video.Service
	Sweeper      *video.Sweeper
	// StaticDir is the directory served under /static/.
	StaticDir string
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// The store lives under DATA_DIR/videos so response URLs of the form
	// /static/videos/<role>/<id> resolve against the static mount.
	store, err := asset.NewStore(filepath.Join(cfg.DataDir, "videos"))
	if err != nil {
		return nil, fmt.Errorf("create asset store: %w", err)
	}
	logger.Info("asset store configured",
		slog.String("root", store.Root()),
	)

	engine := transcode.NewFFmpegEngine(cfg.FFmpegPath, cfg.FFprobePath)

	opts := []video.Option{
		video.WithProber(engine),
		video.WithTranscodeTimeout(cfg.TranscodeTimeout),
	}

	if cfg.S3Enabled() {
		mirror, err := asset.NewMirror(store, asset.MirrorConfig{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 mirror: %w", err)
		}
		opts = append(opts, video.WithMirror(mirror))
		logger.Info("S3 mirror configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
	}

	svc := video.NewService(store, engine, logger, opts...)
	sweeper := video.NewSweeper(store, cfg.RetentionTTL, cfg.SweepInterval, logger)

	return &Dependencies{
		VideoService: svc,
		Sweeper:      sweeper,
		StaticDir:    cfg.DataDir,
	}, nil
}
