package similarity

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is where the similarity service listens by default.
	DefaultBaseURL = "http://localhost:8000"
	// ScorePath is the scoring endpoint of the similarity service.
	ScorePath = "/score-resume-vs-jd"

	contentType     = "application/json"
	contentEncoding = "gzip"
	userAgent       = "jobsense"
)

// HTTP calls the similarity service over HTTP.
type HTTP struct {
	logger     *zap.Logger
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// NewHTTP creates an HTTP provider. The client timeout is a backstop; Lookup applies
// its own deadline through the request context.
func NewHTTP(baseURL string, logger *zap.Logger) *HTTP {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTP{
		logger:  logger,
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 3 * DefaultTimeout,
		},
		UserAgent: userAgent,
	}
}

// Score posts the resume and job description and decodes the signal.
func (c *HTTP) Score(ctx context.Context, req Request) (*Signal, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal similarity request: %w", err)
	}

	url := c.BaseURL + ScorePath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	c.logger.Debug("make request", zap.String("url", url), zap.Int("payload_bytes", len(body)))
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	raw, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read similarity response: %w", err)
	}

	return decodeSignal(raw)
}

func (c *HTTP) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("User-Agent", c.UserAgent)
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(reader)
}

// decodeSignal accepts loosely typed payloads, e.g. a similarity sent as a string.
func decodeSignal(raw []byte) (*Signal, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse similarity response: %w", err)
	}

	if payload["similarity"] == nil {
		return nil, fmt.Errorf("similarity response has no similarity value")
	}

	var signal Signal
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &signal,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(payload); err != nil {
		return nil, fmt.Errorf("decode similarity response: %w", err)
	}

	return &signal, nil
}
