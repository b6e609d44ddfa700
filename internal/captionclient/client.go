package captionclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bryanwahyu/image-caption/internal/domain/caption"
)

// APIError is a non-2xx answer from the caption server.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.StatusCode, e.Details)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

// Client uploads images to a running caption server.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// ReadImage loads and sniffs a local image file, refusing the same inputs
// the server refuses.
func ReadImage(path string) (caption.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return caption.Image{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, caption.MaxImageBytes+1))
	if err != nil {
		return caption.Image{}, err
	}
	if int64(len(data)) > caption.MaxImageBytes {
		return caption.Image{}, fmt.Errorf("%s: image too large, maximum size is 10MB", path)
	}
	detected := mimetype.Detect(data).String()
	if detected == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			detected = byExt
		}
	}
	if !strings.HasPrefix(detected, "image/") {
		return caption.Image{}, fmt.Errorf("%s: only image files are allowed (detected %s)", path, detected)
	}
	return caption.Image{
		Data:     data,
		MimeType: detected,
		Size:     int64(len(data)),
		Filename: filepath.Base(path),
	}, nil
}

// Analyze posts img as the "image" field of a multipart form.
func (c *Client) Analyze(ctx context.Context, img caption.Image) (caption.Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, img.Filename))
	h.Set("Content-Type", img.MimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return caption.Result{}, err
	}
	if _, err := part.Write(img.Data); err != nil {
		return caption.Result{}, err
	}
	if err := mw.Close(); err != nil {
		return caption.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/analyze-image", &body)
	if err != nil {
		return caption.Result{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return caption.Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return caption.Result{}, err
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return caption.Result{}, &APIError{StatusCode: resp.StatusCode, Message: e.Error, Details: e.Details}
	}

	var out struct {
		Success bool            `json:"success"`
		Data    *caption.Result `json:"data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return caption.Result{}, fmt.Errorf("decode response: %w", err)
	}
	if !out.Success || out.Data == nil {
		return caption.Result{}, errors.New("server reported failure without an error body")
	}
	return *out.Data, nil
}

// Render prints a result the way the browser client lays it out.
func Render(w io.Writer, res caption.Result) error {
	_, err := fmt.Fprintf(w,
		"Alt Text:     %s\nDescription:  %s\nColors:       %s\nObjects:      %s\nMood:         %s\nComposition:  %s\n",
		res.AltText,
		res.Description,
		strings.Join(res.Analysis.Colors, ", "),
		strings.Join(res.Analysis.Objects, ", "),
		res.Analysis.Mood,
		res.Analysis.Composition,
	)
	return err
}

// RenderJSON prints the result as indented JSON.
func RenderJSON(w io.Writer, res caption.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
