package s3svc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DeleteObject deletes one object by its encrypted name and returns a
// human-readable confirmation.
func (s *Service) DeleteObject(ctx context.Context, encryptedKey string) (string, error) {
	bucket, err := s.account.Bucket()
	if err != nil {
		return "", fmt.Errorf("DeleteObject: %w", err)
	}

	_, err = s.awsS3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(encryptedKey),
	})
	if err != nil {
		return "", fmt.Errorf("DeleteObject: error deleting from S3: %w", err)
	}

	s.log.Debug("DeleteObject completed", slog.String("key", encryptedKey))
	return fmt.Sprintf("deleted %s", encryptedKey), nil
}
