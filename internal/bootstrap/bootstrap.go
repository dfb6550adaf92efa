// Package bootstrap provides dependency initialization for the frame split API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/maauso/framesplit-api/internal/config"
	"github.com/maauso/framesplit-api/internal/frames"
	"github.com/maauso/framesplit-api/internal/ingest"
	"github.com/maauso/framesplit-api/internal/job"
	"github.com/maauso/framesplit-api/internal/media"
	"github.com/maauso/framesplit-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	SplitService *job.SplitService
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	decoder := media.NewFFmpegDecoder(cfg.FFmpegPath)

	encoder, err := frames.NewEncoder(cfg.FrameFormat,
		frames.WithQuality(cfg.FrameQuality),
		frames.WithMaxWidth(cfg.FrameMaxWidth),
	)
	if err != nil {
		return nil, fmt.Errorf("create frame encoder: %w", err)
	}

	samplerOpts := []frames.Option{
		frames.WithTargetRate(cfg.TargetFPS),
		frames.WithLogger(logger),
	}
	if cfg.S3Enabled() {
		samplerOpts = append(samplerOpts, frames.WithS3Publishing(cfg.S3Prefix))
	}
	sampler := frames.NewSampler(decoder, store, encoder, cfg.FramesDir, samplerOpts...)

	ingestor := ingest.NewIngestor(store, cfg.UploadDir, logger)
	logger.Info("ingestor configured",
		slog.String("upload_dir", ingestor.UploadDir()),
		slog.Int64("max_upload_mb", cfg.MaxUploadMB),
	)

	svcOpts := []job.ServiceOption{job.WithLogger(logger)}
	if !cfg.PerJobFrames() {
		svcOpts = append(svcOpts, job.WithSharedFramesDir())
	}
	svc := job.NewSplitService(job.NewMemoryRepository(), ingestor, sampler, store, svcOpts...)

	return &Dependencies{
		SplitService: svc,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.StaticDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 frame publishing configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("prefix", cfg.S3Prefix),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("static_dir", cfg.StaticDir),
	)
	return localStore, nil
}
