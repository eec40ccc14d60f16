// Package source opens transaction bodies from a local path or from an
// S3-compatible object store.
//
// Locations of the form s3://bucket/key are fetched with GetObject; any
// other location is treated as a local file. Both must end in .edn.
package source

import (
	"context"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/roach88/patomic/internal/errs"
	"github.com/roach88/patomic/internal/tx"
)

const scheme = "s3://"

// DefaultRegion is used when S3Config.Region is empty.
const DefaultRegion = "us-east-1"

// S3Config configures the object store client. Credentials come from the
// default AWS chain.
type S3Config struct {
	Region    string
	Endpoint  string // optional; set for MinIO and other compatible stores
	PathStyle bool
}

// ObjectGetter is the part of *s3.Client the opener needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener resolves locations into loaded transactions.
type Opener struct {
	cfg    S3Config
	client ObjectGetter
	txOpts []tx.Option
}

// Option configures an Opener.
type Option func(*Opener)

// WithS3Client replaces the lazily built S3 client.
func WithS3Client(c ObjectGetter) Option {
	return func(o *Opener) { o.client = c }
}

// WithTransactionOptions are passed to every transaction the opener creates.
func WithTransactionOptions(opts ...tx.Option) Option {
	return func(o *Opener) { o.txOpts = append(o.txOpts, opts...) }
}

// NewOpener returns an opener. The S3 client is only built when an s3
// location is first opened.
func NewOpener(cfg S3Config, opts ...Option) *Opener {
	o := &Opener{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IsS3 reports whether location names an object rather than a file.
func IsS3(location string) bool {
	return strings.HasPrefix(location, scheme)
}

// ParseS3 splits s3://bucket/key.
func ParseS3(location string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(location, scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !IsS3(location) || !ok || bucket == "" || key == "" {
		return "", "", errs.Validation("source.Open", errs.ErrResource, "%s is not a valid s3://bucket/key location", location)
	}
	return bucket, key, nil
}

// Open loads the transaction body at location.
func (o *Opener) Open(ctx context.Context, location string) (*tx.Transaction, error) {
	t := tx.New(o.txOpts...)
	if !IsS3(location) {
		if err := t.LoadFromFile(location).Err(); err != nil {
			return nil, err
		}
		return t, nil
	}

	bucket, key, err := ParseS3(location)
	if err != nil {
		return nil, err
	}
	client, err := o.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "source.Open %s", location), errs.ErrResource)
	}
	defer out.Body.Close()

	if err := t.LoadFromReader(key, out.Body).Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func (o *Opener) s3Client(ctx context.Context) (ObjectGetter, error) {
	if o.client != nil {
		return o.client, nil
	}
	region := o.cfg.Region
	if region == "" {
		region = DefaultRegion
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, errs.Wrap(err, "source: load aws config")
	}
	o.client = s3.NewFromConfig(awsCfg, func(opts *s3.Options) {
		if o.cfg.PathStyle {
			opts.UsePathStyle = true
		}
		if o.cfg.Endpoint != "" {
			opts.BaseEndpoint = aws.String(o.cfg.Endpoint)
		}
	})
	return o.client, nil
}

// Open is a convenience for NewOpener(cfg).Open(ctx, location).
func Open(ctx context.Context, cfg S3Config, location string) (*tx.Transaction, error) {
	return NewOpener(cfg).Open(ctx, location)
}
