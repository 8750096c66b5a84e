// Package cryptsvc bridges the core to the out-of-process crypt service that
// implements the rclone-crypt compatible name and content obfuscation. The
// core never sees the algorithm; it sends key material and ciphertext over a
// local HTTP API and consumes the results.
package cryptsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"
)

var (
	// ErrPartialBatch is returned when the crypt service answers a name batch
	// with a different number of entries than requested. Batches are all or
	// nothing; a partial answer is never applied.
	ErrPartialBatch = errors.New("crypt service returned a partial name batch")
	// ErrCryptService wraps any non-2xx answer of the crypt service.
	ErrCryptService = errors.New("crypt service error")
)

// Service is the HTTP client of the crypt sidecar.
type Service struct {
	client *resty.Client
	log    *slog.Logger
}

// NewService builds a client for the crypt service at baseURL.
// By default the logger is set to discard.
func NewService(baseURL string, timeout time.Duration) *Service {
	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Service{
		client: cli,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger.
func (s *Service) SetLogger(log *slog.Logger) {
	s.log = log
}

type nameBatchRequest struct {
	Keys          []dto.RawObject `json:"keys"`
	EncryptionKey string          `json:"encryptionKey"`
	Salt          string          `json:"salt"`
}

type nameBatchResponse struct {
	Paths []string `json:"paths"`
}

type payloadRequest struct {
	Payload       string `json:"payload"`
	EncryptionKey string `json:"encryptionKey"`
	Salt          string `json:"salt"`
}

type payloadResponse struct {
	Payload string `json:"payload"`
}

type nameRequest struct {
	Path          string `json:"path"`
	EncryptionKey string `json:"encryptionKey"`
	Salt          string `json:"salt"`
}

type nameResponse struct {
	Key string `json:"key"`
}

// DecryptNames decrypts every encrypted name of a raw listing in one batch.
// The answer preserves input order; sizes and timestamps are carried over
// from the raw entries. Delivery is whole-batch atomic: on any failure no
// listing is produced.
func (s *Service) DecryptNames(ctx context.Context, raw []dto.RawObject, encryptionKey, salt string) (dto.Listing, error) {
	var result nameBatchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(nameBatchRequest{Keys: raw, EncryptionKey: encryptionKey, Salt: salt}).
		SetResult(&result).
		Post("/api/v1/names/decrypt")
	if err != nil {
		return dto.Listing{}, fmt.Errorf("DecryptNames: request failed: %w", err)
	}
	if resp.IsError() {
		return dto.Listing{}, fmt.Errorf("DecryptNames: %w: %s", ErrCryptService, resp.Status())
	}
	if len(result.Paths) != len(raw) {
		return dto.Listing{}, fmt.Errorf("DecryptNames: %w: got %d of %d",
			ErrPartialBatch, len(result.Paths), len(raw))
	}

	listing := dto.Listing{
		Objects:       make([]dto.DecryptedObject, 0, len(raw)),
		EncryptionKey: encryptionKey,
		Salt:          salt,
	}
	for i, obj := range raw {
		listing.Objects = append(listing.Objects, dto.DecryptedObject{
			EncryptedKey: obj.EncryptedKey,
			Path:         result.Paths[i],
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	s.log.Debug("DecryptNames completed", slog.Int("keys", len(raw)))
	return listing, nil
}

// DecryptPayload decrypts one base64-encoded object body into text.
func (s *Service) DecryptPayload(ctx context.Context, payload, encryptionKey, salt string) (string, error) {
	var result payloadResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payloadRequest{Payload: payload, EncryptionKey: encryptionKey, Salt: salt}).
		SetResult(&result).
		Post("/api/v1/payload/decrypt")
	if err != nil {
		return "", fmt.Errorf("DecryptPayload: request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("DecryptPayload: %w: %s", ErrCryptService, resp.Status())
	}
	return result.Payload, nil
}

// EncryptName encrypts a decrypted path into the object name to store
// remotely. Each path segment is encrypted separately by the service.
func (s *Service) EncryptName(ctx context.Context, path, encryptionKey, salt string) (string, error) {
	var result nameResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(nameRequest{Path: path, EncryptionKey: encryptionKey, Salt: salt}).
		SetResult(&result).
		Post("/api/v1/names/encrypt")
	if err != nil {
		return "", fmt.Errorf("EncryptName: request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("EncryptName: %w: %s", ErrCryptService, resp.Status())
	}
	return result.Key, nil
}

// EncryptPayload encrypts text content and returns it base64-encoded, ready
// for upload.
func (s *Service) EncryptPayload(ctx context.Context, payload, encryptionKey, salt string) (string, error) {
	var result payloadResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payloadRequest{Payload: payload, EncryptionKey: encryptionKey, Salt: salt}).
		SetResult(&result).
		Post("/api/v1/payload/encrypt")
	if err != nil {
		return "", fmt.Errorf("EncryptPayload: request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("EncryptPayload: %w: %s", ErrCryptService, resp.Status())
	}
	return result.Payload, nil
}
