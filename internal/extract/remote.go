package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/config"
)

// RemoteExtractor calls the document-understanding API. It classifies HTTP
// failures into the pipeline's taxonomy: 429 (or a throttling message) is
// transient, 4xx format complaints are permanent.
type RemoteExtractor struct {
	cfg        config.Config
	httpClient *http.Client
}

type remoteDocument struct {
	CustomerName    string       `json:"customerName"`
	CustomerEmail   string       `json:"customerEmail"`
	CustomerAddress string       `json:"customerAddress"`
	Reference       string       `json:"reference"`
	Lines           []remoteLine `json:"lines"`
}

type remoteLine struct {
	Name             string  `json:"name"`
	Code             string  `json:"code"`
	Description      string  `json:"description"`
	Quantity         float64 `json:"quantity"`
	Unit             string  `json:"unit"`
	ManufacturerPart string  `json:"manufacturerPart"`
}

func NewRemoteExtractor(cfg config.Config) *RemoteExtractor {
	return &RemoteExtractor{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.ExtractorTimeoutMs) * time.Millisecond},
	}
}

func (e *RemoteExtractor) Extract(ctx context.Context, data []byte, filename string) (internal.ExtractedDocument, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return internal.ExtractedDocument{}, err
	}
	if _, err := part.Write(data); err != nil {
		return internal.ExtractedDocument{}, err
	}
	if err := writer.Close(); err != nil {
		return internal.ExtractedDocument{}, err
	}

	target := strings.TrimRight(e.cfg.ExtractorBaseURL, "/") + "/extract"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return internal.ExtractedDocument{}, err
	}
	req.Header.Set("Authorization", "Bearer "+e.cfg.ExtractorToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return internal.ExtractedDocument{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return internal.ExtractedDocument{}, err
	}

	if err := classifyStatus(resp.StatusCode, respBody); err != nil {
		return internal.ExtractedDocument{}, err
	}

	var doc remoteDocument
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return internal.ExtractedDocument{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	return toDocument(doc), nil
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status=%d", ErrRateLimited, status)
	case status == http.StatusBadRequest || status == http.StatusUnsupportedMediaType || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: status=%d body=%s", ErrUnparseable, status, truncate(body, 200))
	default:
		// Some backends signal throttling with a message instead of a 429.
		if bytes.Contains(bytes.ToLower(body), []byte("rate limit")) || bytes.Contains(bytes.ToLower(body), []byte("quota exceeded")) {
			return fmt.Errorf("%w: status=%d", ErrRateLimited, status)
		}
		return fmt.Errorf("extractor error: status=%d body=%s", status, truncate(body, 200))
	}
}

func toDocument(doc remoteDocument) internal.ExtractedDocument {
	out := internal.ExtractedDocument{
		CustomerName:    strings.TrimSpace(doc.CustomerName),
		CustomerEmail:   strings.TrimSpace(doc.CustomerEmail),
		CustomerAddress: strings.TrimSpace(doc.CustomerAddress),
		Reference:       strings.TrimSpace(doc.Reference),
	}
	for _, line := range doc.Lines {
		name := strings.TrimSpace(line.Name)
		if name == "" {
			continue
		}
		out.Lines = append(out.Lines, internal.DocumentLine{
			Name:             name,
			Code:             strings.TrimSpace(line.Code),
			Description:      strings.TrimSpace(line.Description),
			Quantity:         line.Quantity,
			Unit:             strings.TrimSpace(line.Unit),
			ManufacturerPart: strings.TrimSpace(line.ManufacturerPart),
		})
	}
	return out
}

func truncate(body []byte, limit int) string {
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}
