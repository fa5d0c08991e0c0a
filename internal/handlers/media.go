package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"varta/server/internal/models"
	"varta/server/internal/providers"
)

const maxUploadMemory = 32 << 20

// uploadedFile is a multipart part spooled to disk, waiting to be forwarded
// to the media host.
type uploadedFile struct {
	Path     string
	MimeType string
	Name     string
	Size     int64
}

// Remove deletes the spooled copy. Called regardless of upload outcome.
func (f *uploadedFile) Remove() {
	if f != nil {
		_ = os.Remove(f.Path)
	}
}

// receiveUpload spools the named multipart part to a temp file. Returns
// (nil, nil) when the request carries no such part.
func receiveUpload(r *http.Request, field string) (*uploadedFile, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		_ = r.ParseForm()
		return nil, nil
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, models.ErrValidation
	}

	part, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, models.ErrValidation
	}
	defer part.Close()

	tmp, err := os.CreateTemp("", "varta-upload-*")
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(tmp, part)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return nil, err
	}

	return &uploadedFile{
		Path:     tmp.Name(),
		MimeType: header.Header.Get("Content-Type"),
		Name:     header.Filename,
		Size:     size,
	}, nil
}

// pushToMediaHost forwards the spooled file to the media host and classifies
// its content type from the MIME prefix. The local copy is removed either way.
func pushToMediaHost(ctx context.Context, uploader providers.MediaUploader, file *uploadedFile) (string, models.ContentType, error) {
	defer file.Remove()

	mediaURL, err := uploader.Upload(ctx, file.Path, file.MimeType)
	if err != nil {
		if !errors.Is(err, models.ErrUploadFailed) {
			err = models.ErrUploadFailed
		}
		return "", "", err
	}

	contentType, err := models.ContentTypeForMime(file.MimeType)
	if err != nil {
		log.Debug().Str("mime", file.MimeType).Msg("unsupported media type")
		return "", "", err
	}
	return mediaURL, contentType, nil
}
