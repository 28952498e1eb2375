// Package media moves inline image and file uploads out of submitted values.
// Data URLs held by image and file fields are uploaded to S3 and replaced
// with object URLs before the wrapped save runs.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/controls"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// ObjectUploader is the subset of manager.Uploader the package uses.
type ObjectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Config locates the bucket uploads go to.
type Config struct {
	Bucket string
	Region string
	Prefix string
	// Endpoint points the client at an S3 compatible server such as MinIO.
	// Path-style addressing is used when set.
	Endpoint string
	// PublicURL is the base of returned object URLs. Defaults to the
	// location S3 reports for each upload.
	PublicURL string
}

// UploadError reports the field whose upload failed. The engine surfaces it
// as field feedback so the form can point at the offending input.
type UploadError struct {
	Field string
	Label string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("media: upload %s: %v", e.Label, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// FieldErrors implements engine.FieldFeedback.
func (e *UploadError) FieldErrors() map[string][]string {
	return map[string][]string{e.Field: {e.Label + " could not be uploaded, try again"}}
}

// Uploader rewrites data URLs into object URLs.
type Uploader struct {
	client    ObjectUploader
	bucket    string
	prefix    string
	publicURL string
	newKey    func() string
	logger    *zap.Logger
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithPrefix sets the key prefix objects are written under.
func WithPrefix(prefix string) Option {
	return func(u *Uploader) {
		u.prefix = strings.Trim(prefix, "/")
	}
}

// WithPublicURL sets the base URL returned for uploaded objects.
func WithPublicURL(base string) Option {
	return func(u *Uploader) {
		u.publicURL = strings.TrimRight(base, "/")
	}
}

// WithLogger routes upload logs to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// New wraps an existing client.
func New(client ObjectUploader, bucket string, options ...Option) *Uploader {
	u := &Uploader{
		client: client,
		bucket: bucket,
		newKey: func() string { return uuid.NewString() },
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(u)
		}
	}
	return u
}

// NewS3 builds an Uploader from the default AWS credential chain.
func NewS3(ctx context.Context, cfg Config, options ...Option) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("media: bucket is required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("media: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	})

	opts := []Option{WithPrefix(cfg.Prefix)}
	if cfg.PublicURL != "" {
		opts = append(opts, WithPublicURL(cfg.PublicURL))
	}
	return New(manager.NewUploader(client), cfg.Bucket, append(opts, options...)...), nil
}

// Wrap returns a save callback that uploads every inline image or file value
// of s and then calls next with the rewritten values. An upload failure
// aborts the save and is returned to the engine.
func (u *Uploader) Wrap(s *schema.Schema, next engine.SaveFunc) engine.SaveFunc {
	var targets []schema.Field
	for _, field := range s.Fields() {
		if k := field.Kind(); k == schema.KindImage || k == schema.KindFile {
			targets = append(targets, field)
		}
	}
	return func(ctx context.Context, values map[string]any) error {
		out := make(map[string]any, len(values))
		for k, v := range values {
			out[k] = v
		}
		for _, field := range targets {
			raw, ok := out[field.Name].(string)
			if !ok || !controls.IsDataURL(raw) {
				continue
			}
			url, err := u.upload(ctx, s.ID, field.Name, raw)
			if err != nil {
				return &UploadError{Field: field.Name, Label: field.DisplayLabel(), Err: err}
			}
			out[field.Name] = url
		}
		return next(ctx, out)
	}
}

func (u *Uploader) upload(ctx context.Context, schemaID, field, dataURL string) (string, error) {
	contentType, data, err := controls.ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	key := u.objectKey(schemaID, field, contentType)
	result, err := u.client.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	u.logger.Info("uploaded form media",
		zap.String("bucket", u.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	if u.publicURL != "" || result == nil || result.Location == "" {
		return u.publicURL + "/" + key, nil
	}
	return result.Location, nil
}

func (u *Uploader) objectKey(schemaID, field, contentType string) string {
	name := u.newKey()
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		name += exts[0]
	}
	return path.Join(u.prefix, schemaID, field, name)
}
