package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"varta/server/internal/config"
	"varta/server/internal/models"
)

var ErrMediaNotConfigured = errors.New("media host is not configured")

// MediaUploader pushes a spooled upload to the media host and returns its
// public URL.
type MediaUploader interface {
	Upload(ctx context.Context, path, mimeType string) (string, error)
}

// CloudinaryUploader stores media on Cloudinary.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cfg config.CloudinaryConfig) (*CloudinaryUploader, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return &CloudinaryUploader{}, nil
	}
	client, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryUploader{client: client}, nil
}

func (c *CloudinaryUploader) Upload(ctx context.Context, path, mimeType string) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrMediaNotConfigured
	}

	resp, err := c.client.Upload.Upload(ctx, path, uploader.UploadParams{
		PublicID:     uuid.NewString(),
		ResourceType: "auto",
	})
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("media upload failed")
		return "", fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	if resp.SecureURL == "" {
		log.Error().Str("path", path).Str("error", resp.Error.Message).Msg("media upload returned no URL")
		return "", models.ErrUploadFailed
	}

	log.Debug().Str("url", resp.SecureURL).Str("mime", mimeType).Msg("media uploaded")
	return resp.SecureURL, nil
}
