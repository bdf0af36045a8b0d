package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// OCRClient calls an OCR HTTP service: POST {base}/ocr with a multipart "file" field,
// answered by {"text": "..."} or {"error": "..."}.
type OCRClient struct {
	httpClient *http.Client
	baseURL    string
}

// OCRResponse is the service's reply.
type OCRResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// NewOCRClient creates a client for the service at baseURL.
func NewOCRClient(baseURL string, timeout time.Duration) *OCRClient {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &OCRClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Health returns nil when the service answers GET /health with 200.
func (c *OCRClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("OCR health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OCR service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// ExtractFile runs OCR on the image at path.
func (c *OCRClient) ExtractFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer f.Close()
	return c.ExtractText(ctx, filepath.Base(path), f)
}

// ExtractText uploads one image and returns the recognized text.
func (c *OCRClient) ExtractText(ctx context.Context, filename string, image io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", &buf)
	if err != nil {
		return "", fmt.Errorf("create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OCR request: %w", err)
	}
	defer resp.Body.Close()

	var out OCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode OCR response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return "", fmt.Errorf("OCR failed for %s: status %d: %s", filename, resp.StatusCode, out.Error)
	}
	return out.Text, nil
}
