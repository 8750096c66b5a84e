package s3svc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"
)

// RawListing is the outcome of one listing request: the encrypted-name
// entries plus whether the page cap cut the listing short.
type RawListing struct {
	Objects   []dto.RawObject
	Truncated bool
}

// ListBucket lists up to MaxListKeys objects from the account's first
// configured bucket. No continuation tokens are followed; Truncated reports
// whether more objects exist.
func (s *Service) ListBucket(ctx context.Context) (RawListing, error) {
	bucket, err := s.account.Bucket()
	if err != nil {
		return RawListing{}, fmt.Errorf("ListBucket: %w", err)
	}

	out, err := s.awsS3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(MaxListKeys),
	})
	if err != nil {
		return RawListing{}, fmt.Errorf("ListBucket: error of ListObjectsV2: %w", err)
	}

	result := RawListing{
		Objects:   make([]dto.RawObject, 0, len(out.Contents)),
		Truncated: aws.ToBool(out.IsTruncated),
	}
	for _, obj := range out.Contents {
		var lastModified string
		if obj.LastModified != nil {
			lastModified = obj.LastModified.UTC().Format(time.RFC3339)
		}
		result.Objects = append(result.Objects, dto.RawObject{
			EncryptedKey: aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: lastModified,
		})
	}
	s.log.Debug("ListBucket completed",
		slog.String("bucket", bucket),
		slog.Int("keys", len(result.Objects)),
		slog.Bool("truncated", result.Truncated))
	return result, nil
}

// GetObjectBytes fetches one object's full body by its encrypted name.
func (s *Service) GetObjectBytes(ctx context.Context, encryptedKey string) ([]byte, error) {
	bucket, err := s.account.Bucket()
	if err != nil {
		return nil, fmt.Errorf("GetObjectBytes: %w", err)
	}

	out, err := s.awsS3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(encryptedKey),
	})
	if err != nil {
		return nil, fmt.Errorf("GetObjectBytes: error of GetObject: %w", err)
	}
	defer out.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("GetObjectBytes: error reading body: %w", err)
	}
	s.log.Debug("GetObjectBytes completed",
		slog.String("key", encryptedKey), slog.Int("size", len(body)))
	return body, nil
}
