package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bryanwahyu/image-caption/internal/domain/ai"
	domain "github.com/bryanwahyu/image-caption/internal/domain/caption"
	"github.com/bryanwahyu/image-caption/internal/middleware"
)

const (
	imageField = "image"
	// room for multipart boundaries, headers and small fields around the file
	multipartOverhead = 1 << 20
)

var (
	errNoImage = &ai.ClientInputError{
		StatusCode: http.StatusBadRequest,
		Message:    "No image file provided",
	}
	errNotImage = &ai.ClientInputError{
		StatusCode: http.StatusBadRequest,
		Message:    "Only image files are allowed",
	}
	errTooLarge = &ai.ClientInputError{
		StatusCode: http.StatusRequestEntityTooLarge,
		Message:    "Image too large",
		Details:    "Maximum size is 10MB",
	}
)

// readImage streams the multipart body and keeps only the "image" file part,
// in memory. The whole body is capped so an oversized upload is refused while
// it streams in.
func readImage(w http.ResponseWriter, req *http.Request, maxBytes int64) (domain.Image, error) {
	if req.ContentLength > maxBytes+multipartOverhead {
		return domain.Image{}, errTooLarge
	}
	req.Body = http.MaxBytesReader(w, req.Body, maxBytes+multipartOverhead)

	mr, err := req.MultipartReader()
	if err != nil {
		return domain.Image{}, errNoImage
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return domain.Image{}, errNoImage
		}
		if err != nil {
			return domain.Image{}, bodyError(err, errNoImage)
		}
		if part.FormName() != imageField || part.FileName() == "" {
			part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, maxBytes+1))
		part.Close()
		if err != nil {
			return domain.Image{}, bodyError(err, err)
		}
		return toImage(part.Header.Get("Content-Type"), part.FileName(), data, maxBytes)
	}
}

func toImage(declared, filename string, data []byte, maxBytes int64) (domain.Image, error) {
	if int64(len(data)) > maxBytes {
		return domain.Image{}, errTooLarge
	}
	if len(data) == 0 {
		return domain.Image{}, errNoImage
	}
	if !middleware.IsImageType(declared) {
		return domain.Image{}, errNotImage
	}
	// Recognised bytes override the declared type; unrecognised binary keeps it.
	mimeType := declared
	if sniffed := mimetype.Detect(data); !sniffed.Is("application/octet-stream") {
		if !middleware.IsImageType(sniffed.String()) {
			return domain.Image{}, errNotImage
		}
		mimeType = sniffed.String()
	}
	return domain.Image{
		Data:     data,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Filename: middleware.SanitizeFilename(filename),
	}, nil
}

// bodyError reports a body that hit the size cap as too large and anything
// else as fallback.
func bodyError(err, fallback error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errTooLarge
	}
	return fallback
}
