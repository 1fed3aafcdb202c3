package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Config describes an S3-compatible bucket holding the covers.
type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
	KeyID    string
	Secret   string
}

type objectGetter interface {
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
}

// S3Store reads covers from <Prefix>/<id><Ext> in a bucket.
type S3Store struct {
	api    objectGetter
	bucket string
	prefix string
	Ext    string
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.KeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.KeyID, cfg.Secret, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("creating s3 session: %w", err)
	}
	return &S3Store{api: s3.New(sess), bucket: cfg.Bucket, prefix: cfg.Prefix, Ext: DefaultCoverExt}, nil
}

func (s *S3Store) key(coverID string) string {
	return path.Join(s.prefix, coverID+s.Ext)
}

func (s *S3Store) Get(ctx context.Context, coverID string) ([]byte, error) {
	if !validID(coverID) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, coverID)
	}

	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(coverID)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, coverID)
		}
		return nil, fmt.Errorf("fetching cover %s: %w", coverID, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading cover %s: %w", coverID, err)
	}
	return data, nil
}
