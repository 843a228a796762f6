package manifest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/waypoint/pkg/router"
)

// Source supplies raw manifest bytes.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string

	// Format is the manifest encoding.
	Format() Format

	// Fetch returns the manifest bytes and an opaque version string that
	// changes whenever the content does.
	Fetch(ctx context.Context) (data []byte, version string, err error)
}

// FileSource reads a manifest from the local filesystem.
type FileSource struct {
	path   string
	format Format
}

// NewFileSource creates a source for path. The format follows the extension.
func NewFileSource(path string) (*FileSource, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: path, format: format}, nil
}

func (s *FileSource) Name() string   { return s.path }
func (s *FileSource) Format() Format { return s.format }

// Fetch reads the file. The version is derived from its size and mtime.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, "", err
	}
	version := strconv.FormatInt(info.ModTime().UnixNano(), 36) + "-" + strconv.FormatInt(info.Size(), 36)
	return data, version, nil
}

// S3API is the subset of the S3 client used by S3Source.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a manifest object from S3 or an S3-compatible store.
type S3Source struct {
	client S3API
	bucket string
	key    string
	format Format
}

// NewS3Source creates a source for s3://bucket/key. The format follows the
// key's extension.
func NewS3Source(client S3API, bucket, key string) (*S3Source, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("manifest: s3 source needs a bucket and a key")
	}
	format, err := FormatFromPath(key)
	if err != nil {
		return nil, err
	}
	return &S3Source{client: client, bucket: bucket, key: key, format: format}, nil
}

func (s *S3Source) Name() string   { return "s3://" + s.bucket + "/" + s.key }
func (s *S3Source) Format() Format { return s.format }

// Fetch downloads the object. The version is the object's ETag.
func (s *S3Source) Fetch(ctx context.Context) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, "", err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", err
	}
	return data, aws.ToString(out.ETag), nil
}

// S3Config holds the settings NewS3Client needs.
type S3Config struct {
	Region string
	// Endpoint overrides the S3 endpoint, for MinIO and other compatible stores.
	// Setting it switches to path-style addressing.
	Endpoint string
}

// NewS3Client creates an S3 client. Credentials come from AWS_ACCESS_KEY_ID,
// AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN; without them requests are
// unsigned, which suits public buckets.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region: cfg.Region,
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	key, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if key != "" && secret != "" {
		token := os.Getenv("AWS_SESSION_TOKEN")
		opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     key,
				SecretAccessKey: secret,
				SessionToken:    token,
				Source:          "Environment",
			}, nil
		})
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}

	return s3.New(opts)
}

// Load fetches, parses and builds a table from src.
func Load(ctx context.Context, src Source, resolve ViewResolver) (*router.Table, string, error) {
	data, version, err := src.Fetch(ctx)
	if err != nil {
		return nil, "", &Error{Source: src.Name(), Kind: ErrRead, Err: err}
	}
	table, err := Decode(src.Name(), data, src.Format(), resolve)
	if err != nil {
		return nil, "", err
	}
	return table, version, nil
}

// Decode parses data and builds its table, wrapping failures in *Error.
func Decode(name string, data []byte, format Format, resolve ViewResolver) (*router.Table, error) {
	m, err := Parse(data, format)
	if err != nil {
		return nil, &Error{Source: name, Kind: ErrParse, Err: err}
	}
	table, err := m.Table(resolve)
	if err != nil {
		return nil, &Error{Source: name, Kind: ErrInvalid, Err: err}
	}
	return table, nil
}
