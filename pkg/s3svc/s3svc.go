// Package s3svc is a thin orchestration layer over the bucket's list, get,
// put and delete object operations. All object names handled here are the
// encrypted ones as stored remotely. No retries are performed; retry policy
// belongs to the SDK transport.
package s3svc

import (
	"context"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"
)

// MaxListKeys is the hard page cap of one listing request. A bucket holding
// more objects yields a truncated listing, flagged on the result.
const MaxListKeys = 100

const defaultRegion = "us-east-1"

// S3API is the subset of the S3 client used by the service.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Service is the struct for the S3 service, scoped to one account.
type Service struct {
	account     dto.Account
	awsS3Client S3API
	log         *slog.Logger
}

// NewService builds a service for the given account.
// By default the logger is set to discard.
func NewService(ctx context.Context, account dto.Account) (*Service, error) {
	client, err := newS3Client(ctx, account)
	if err != nil {
		return nil, err
	}
	return NewServiceWithClient(account, client), nil
}

// NewServiceWithClient builds a service around an existing client.
func NewServiceWithClient(account dto.Account, client S3API) *Service {
	return &Service{
		account:     account,
		awsS3Client: client,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger.
func (s *Service) SetLogger(log *slog.Logger) {
	s.log = log
}

// newS3Client builds the underlying client from the account credentials.
func newS3Client(ctx context.Context, account dto.Account) (*s3.Client, error) {
	region := account.Region
	if region == "" {
		region = defaultRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(account.AccessKey, account.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, ClientOptions(account)), nil
}

// ClientOptions applies the account's addressing to the client. An alternate
// provider carries a static endpoint; requests then go to that host instead of
// the regional AWS one. Path-style addressing is set independently, as most of
// the S3-compatible providers require it.
func ClientOptions(account dto.Account) func(*s3.Options) {
	return func(o *s3.Options) {
		o.UsePathStyle = account.PathStyle
		if account.Endpoint != "" {
			o.BaseEndpoint = aws.String(account.Endpoint)
		}
	}
}
