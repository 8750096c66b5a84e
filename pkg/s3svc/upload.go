package s3svc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObject uploads one object under its encrypted name. The body is already
// ciphertext, so no content type beyond octet-stream applies.
func (s *Service) PutObject(ctx context.Context, encryptedKey string, body []byte) error {
	bucket, err := s.account.Bucket()
	if err != nil {
		return fmt.Errorf("PutObject: %w", err)
	}

	_, err = s.awsS3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(encryptedKey),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/octet-stream"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("PutObject: error uploading to S3: %w", err)
	}

	s.log.Debug("PutObject completed",
		slog.String("key", encryptedKey), slog.Int("size", len(body)))
	return nil
}
