// Package video implements the transform pipeline: upload ingestion,
// transform request validation, engine invocation and download resolution.
package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/videocrop/videocrop-api/internal/asset"
	"github.com/videocrop/videocrop-api/internal/transcode"
)

// Derived identity prefixes. Purely a debugging aid when listing the
// output directory; correctness never depends on them.
const (
	croppedPrefix   = "cropped_"
	grayscalePrefix = "grayscale_"
)

// DerivedMirror publishes a derived asset to external storage and returns
// its public URL.
type DerivedMirror interface {
	MirrorDerived(ctx context.Context, id string) (string, error)
}

// Service orchestrates the transform pipeline against an asset store and
// a transcode engine. It holds no mutable state of its own; the
// filesystem behind the store is the only shared resource.
type Service struct {
	store    *asset.Store
	engine   transcode.Engine
	prober   transcode.Prober
	mirror   DerivedMirror
	validate *validator.Validate
	logger   *slog.Logger
	// transcodeTimeout bounds one engine invocation. Zero means no bound
	// beyond the caller's context.
	transcodeTimeout time.Duration
}

// Option is a function that configures a Service instance.
type Option func(*Service)

// WithProber enables media duration probing of uploads for log output.
func WithProber(p transcode.Prober) Option {
	return func(s *Service) {
		s.prober = p
	}
}

// WithMirror enables S3 mirroring of derived assets.
func WithMirror(m DerivedMirror) Option {
	return func(s *Service) {
		s.mirror = m
	}
}

// WithTranscodeTimeout bounds engine invocations to d.
func WithTranscodeTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.transcodeTimeout = d
	}
}

// NewService creates a new Service.
func NewService(store *asset.Store, engine transcode.Engine, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:    store,
		engine:   engine,
		validate: validator.New(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadInput describes one inbound upload.
type UploadInput struct {
	// ContentType is the declared media type of the upload. This is a
	// declared-type check, not content sniffing, and is spoofable; it only
	// gates obviously wrong uploads.
	ContentType string
	// Filename is the client-supplied name, used solely to preserve the
	// container extension. It is never used as a storage identity.
	Filename string
	// Body is the upload byte stream.
	Body io.Reader
}

// Upload streams an inbound file into the store under a fresh identity.
// It fails with ErrUnsupportedMediaType when the declared content type is
// not video/*, leaving no asset behind.
func (s *Service) Upload(ctx context.Context, in UploadInput) (asset.Asset, error) {
	if !strings.HasPrefix(in.ContentType, "video/") {
		return asset.Asset{}, fmt.Errorf("%w: declared content type %q", ErrUnsupportedMediaType, in.ContentType)
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	id := s.store.NewIdentity("", ext)

	size, err := s.store.Create(ctx, id, asset.RoleSource, in.Body)
	if err != nil {
		return asset.Asset{}, &StorageError{Op: "upload", Err: err}
	}

	a, err := s.store.Stat(id, asset.RoleSource)
	if err != nil {
		return asset.Asset{}, &StorageError{Op: "upload", Err: err}
	}

	logAttrs := []any{
		slog.String("asset_id", id),
		slog.Int64("size", size),
		slog.String("content_type", in.ContentType),
	}
	if s.prober != nil {
		if dur, err := s.prober.Duration(ctx, a.Path); err == nil {
			logAttrs = append(logAttrs, slog.Float64("duration_sec", dur))
		}
	}
	s.logger.Info("video uploaded", logAttrs...)

	return a, nil
}

// CropInput describes one transform request. Coordinates are validated as
// non-negative; whether the rectangle fits the actual frame is left to
// the engine, which fails with its own diagnostics.
type CropInput struct {
	Filename  string `validate:"required"`
	X         int    `validate:"gte=0"`
	Y         int    `validate:"gte=0"`
	Width     int    `validate:"gte=0"`
	Height    int    `validate:"gte=0"`
	Grayscale bool
}

// CropOutput is the result of a successful transform.
type CropOutput struct {
	Asset asset.Asset
	// MirrorURL is the S3 URL of the derived asset when mirroring is
	// configured and succeeded.
	MirrorURL string
}

// Crop validates the transform request and invokes the engine to produce
// a derived asset. Each invocation writes a freshly identified output, so
// identical requests never collide and are never deduplicated. Transcode
// failures are deterministic and not retried.
func (s *Service) Crop(ctx context.Context, in CropInput) (CropOutput, error) {
	if err := s.validate.Struct(in); err != nil {
		return CropOutput{}, fmt.Errorf("%w: %s", ErrInvalidParameters, err)
	}

	inputPath, err := s.store.Path(in.Filename, asset.RoleSource)
	if err != nil {
		// A malformed identity can never name an existing source.
		return CropOutput{}, fmt.Errorf("%w: %s", ErrAssetNotFound, in.Filename)
	}
	if !s.store.Exists(in.Filename, asset.RoleSource) {
		return CropOutput{}, fmt.Errorf("%w: %s", ErrAssetNotFound, in.Filename)
	}

	prefix := croppedPrefix
	if in.Grayscale {
		prefix = grayscalePrefix
	}
	outID := s.store.NewIdentity(prefix, strings.ToLower(filepath.Ext(in.Filename)))
	outputPath, err := s.store.Path(outID, asset.RoleDerived)
	if err != nil {
		return CropOutput{}, &StorageError{Op: "crop", Err: err}
	}

	job := transcode.Job{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Filter: transcode.FilterGraph{
			Crop:      transcode.CropRegion{X: in.X, Y: in.Y, Width: in.Width, Height: in.Height},
			Grayscale: in.Grayscale,
		},
		CopyAudio: true,
	}

	runCtx := ctx
	if s.transcodeTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.transcodeTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.engine.Run(runCtx, job); err != nil {
		// A failed transcode must never register a retrievable derived
		// asset. The engine may have written a partial output.
		if rmErr := s.store.Remove(outID, asset.RoleDerived); rmErr != nil && !errors.Is(rmErr, asset.ErrNotFound) {
			s.logger.Warn("failed to remove partial output",
				slog.String("asset_id", outID),
				slog.String("error", rmErr.Error()),
			)
		}

		diag := err.Error()
		var engErr *transcode.EngineError
		if errors.As(err, &engErr) {
			diag = engErr.Diagnostic()
		}
		s.logger.Error("transcode failed",
			slog.String("source", in.Filename),
			slog.String("filter", job.Filter.String()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return CropOutput{}, &TranscodeError{Diagnostic: diag, Err: err}
	}

	a, err := s.store.Stat(outID, asset.RoleDerived)
	if err != nil {
		return CropOutput{}, &StorageError{Op: "crop", Err: err}
	}

	out := CropOutput{Asset: a}
	if s.mirror != nil {
		url, err := s.mirror.MirrorDerived(ctx, outID)
		if err != nil {
			// The local derived asset is valid on its own; a mirror
			// failure is logged, not surfaced.
			s.logger.Warn("derived asset mirror failed",
				slog.String("asset_id", outID),
				slog.String("error", err.Error()),
			)
		} else {
			out.MirrorURL = url
		}
	}

	s.logger.Info("transcode completed",
		slog.String("source", in.Filename),
		slog.String("asset_id", outID),
		slog.String("filter", job.Filter.String()),
		slog.Int64("size", a.Size),
		slog.Duration("elapsed", time.Since(start)),
	)

	return out, nil
}

// Resolved describes a derived asset ready for download.
type Resolved struct {
	Path      string
	MediaType string
	Size      int64
}

// Resolve maps a derived asset identity to its location and response
// media type. It fails with ErrAssetNotFound when the asset is absent,
// including for identities a transcode failed to produce.
func (s *Service) Resolve(id string) (Resolved, error) {
	a, err := s.store.Stat(id, asset.RoleDerived)
	if err != nil {
		if errors.Is(err, asset.ErrNotFound) || errors.Is(err, asset.ErrInvalidIdentity) {
			return Resolved{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
		}
		return Resolved{}, &StorageError{Op: "download", Err: err}
	}
	return Resolved{
		Path:      a.Path,
		MediaType: MediaTypeFor(id),
		Size:      a.Size,
	}, nil
}

// Delete removes a derived asset.
func (s *Service) Delete(id string) error {
	err := s.store.Remove(id, asset.RoleDerived)
	if err != nil {
		if errors.Is(err, asset.ErrNotFound) || errors.Is(err, asset.ErrInvalidIdentity) {
			return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
		}
		return &StorageError{Op: "delete", Err: err}
	}
	s.logger.Info("derived asset deleted", slog.String("asset_id", id))
	return nil
}
