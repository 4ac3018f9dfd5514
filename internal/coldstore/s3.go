package coldstore

import (
	"context"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/errors"
)

// S3Store implements Store against S3 or an S3-compatible backend. Single
// bucket; keys map to object keys directly.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3 builds an S3 store from the cold store settings. Credentials come
// from the default chain (environment, shared config, instance role).
func NewS3(ctx context.Context, settings conf.ColdStoreSettings) (*S3Store, error) {
	if settings.Bucket == "" {
		return nil, errors.Newf("cold store bucket not configured").
			Component("coldstore").
			Category(errors.CategoryConfig).
			Build()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(settings.Region))
	if err != nil {
		return nil, errors.New(err).
			Component("coldstore").
			Category(errors.CategoryColdStore).
			Context("region", settings.Region).
			Build()
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if settings.PathStyle {
			o.UsePathStyle = true
		}
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
		}
	})

	return &S3Store{client: client, bucket: settings.Bucket}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if contentType != "" {
		input.ContentType = &contentType
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return errors.New(err).
			Component("coldstore").
			Category(errors.CategoryColdStore).
			Context("key", key).
			Build()
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]Info, error) {
	var infos []Info
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, errors.New(err).
				Component("coldstore").
				Category(errors.CategoryColdStore).
				Context("prefix", prefix).
				Build()
		}
		for _, obj := range out.Contents {
			infos = append(infos, Info{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
		if out.IsTruncated != nil && *out.IsTruncated && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return nil, errors.New(err).
			Component("coldstore").
			Category(errors.CategoryColdStore).
			Context("key", key).
			Build()
	}
	return out.Body, nil
}
