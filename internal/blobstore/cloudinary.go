package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"showcase/internal/config"
	"showcase/internal/middleware"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/sony/gobreaker/v2"
)

// uploadAPI is the subset of the Cloudinary upload API the store calls.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryOptions tunes retries and the circuit breaker.
type CloudinaryOptions struct {
	Folder          string
	MaxRetries      int
	BreakerFailures int
	BreakerTimeout  time.Duration
	InitialInterval time.Duration
}

// CloudinaryStore keeps blobs in Cloudinary. Every call is retried with
// exponential backoff and guarded by a circuit breaker.
type CloudinaryStore struct {
	api     uploadAPI
	opts    CloudinaryOptions
	breaker *gobreaker.CircuitBreaker[any]
}

// NewCloudinaryStore builds a store from credentials.
func NewCloudinaryStore(cloudName, apiKey, apiSecret string, opts CloudinaryOptions) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return newCloudinaryStore(&cld.Upload, opts), nil
}

func newCloudinaryStore(api uploadAPI, opts CloudinaryOptions) *CloudinaryStore {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BreakerFailures <= 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 200 * time.Millisecond
	}

	failures := uint32(opts.BreakerFailures)
	settings := gobreaker.Settings{
		Name:    "cloudinary",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			middleware.Logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}
	return &CloudinaryStore{
		api:     api,
		opts:    opts,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

// New picks the Cloudinary store when credentials are configured and the
// disabled store otherwise.
func New(cfg *config.Config) (Store, error) {
	if !cfg.CloudinaryConfigured() {
		middleware.Logger.Warn("Cloudinary credentials missing; uploads disabled and blob deletes skipped")
		return Disabled{}, nil
	}
	return NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, CloudinaryOptions{
		Folder:          cfg.CloudinaryFolder,
		MaxRetries:      cfg.BlobMaxRetries,
		BreakerFailures: cfg.BlobBreakerFailures,
	})
}

func (s *CloudinaryStore) retry(ctx context.Context, op string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.InitialInterval

	attempt := func() error {
		_, err := s.breaker.Execute(func() (any, error) {
			return nil, fn()
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.RetryNotify(
		attempt,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.opts.MaxRetries)), ctx),
		func(err error, d time.Duration) {
			middleware.Logger.WarnContext(ctx, "cloudinary call failed, retrying",
				slog.String("op", op),
				slog.Duration("backoff", d),
				slog.String("error", err.Error()),
			)
		},
	)
}

func ptrBool(b bool) *bool {
	return &b
}

// Upload stores an image, limiting its width to 800px.
func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, filename string) (*Object, error) {
	// The reader can only be consumed once, so buffer it for retries.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", filename, err)
	}

	params := uploader.UploadParams{
		Folder:         s.opts.Folder,
		UseFilename:    ptrBool(true),
		UniqueFilename: ptrBool(true),
		ResourceType:   "image",
		AllowedFormats: []string{"jpg", "jpeg", "png"},
		Transformation: "c_limit,w_800",
	}

	var result *uploader.UploadResult
	err = s.retry(ctx, "upload", func() error {
		res, err := s.api.Upload(ctx, bytesReader(data), params)
		if err != nil {
			return err
		}
		if res.Error.Message != "" {
			return errors.New(res.Error.Message)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Object{
		URL:      result.SecureURL,
		PublicID: result.PublicID,
		Format:   result.Format,
		Bytes:    result.Bytes,
	}, nil
}

// Destroy removes a blob. A bare public id is resolved inside the upload
// folder. Destroying a missing blob succeeds.
func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	if s.opts.Folder != "" && !strings.Contains(publicID, "/") {
		publicID = s.opts.Folder + "/" + publicID
	}
	return s.retry(ctx, "destroy", func() error {
		res, err := s.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
		if err != nil {
			return err
		}
		if res.Error.Message != "" {
			return errors.New(res.Error.Message)
		}
		if res.Result != "ok" && res.Result != "not found" {
			return fmt.Errorf("unexpected destroy result %q", res.Result)
		}
		return nil
	})
}
