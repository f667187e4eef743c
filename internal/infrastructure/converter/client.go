// Package converter resolves SMILES strings to structure records through the
// remote conversion service.
package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/molscope/internal/domain/molecule"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/pkg/errors"
)

const (
	convertPath     = "/convert"
	maxResponseSize = 4 << 20
)

// Converter turns a SMILES string into MDL record text.
type Converter interface {
	Convert(ctx context.Context, smiles string) (string, error)
}

// Config for Client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client talks to the conversion service over HTTP.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       logging.Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

type convertRequest struct {
	SMILES string `json:"smiles"`
}

type convertResponse struct {
	MolBlock string `json:"mol_block"`
	Error    string `json:"error"`
}

// NewClient validates the base URL and applies defaults.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeValidation, "converter base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid converter base URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeValidation, "converter base URL scheme must be http or https")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = 200 * time.Millisecond
	}
	if cfg.RetryWaitMax < cfg.RetryWaitMin {
		cfg.RetryWaitMax = 10 * cfg.RetryWaitMin
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logging.NewNopLogger(),
		retryMax:     cfg.MaxRetries,
		retryWaitMin: cfg.RetryWaitMin,
		retryWaitMax: cfg.RetryWaitMax,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Convert resolves smiles to a record. The SMILES string is screened locally
// first; the service's own error text is carried in the returned error's
// detail.
func (c *Client) Convert(ctx context.Context, smiles string) (string, error) {
	smiles = strings.TrimSpace(smiles)
	if err := molecule.ValidateSMILES(smiles); err != nil {
		return "", err
	}
	body, err := json.Marshal(convertRequest{SMILES: smiles})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal convert request")
	}

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debug("Retrying conversion", logging.Int("attempt", attempt), logging.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "conversion cancelled")
			}
		}

		block, retry, err := c.attempt(ctx, body, requestID)
		if err == nil {
			return block, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return "", lastErr
}

func (c *Client) attempt(ctx context.Context, body []byte, requestID string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+convertPath, bytes.NewReader(body))
	if err != nil {
		return "", false, errors.Wrap(err, errors.ErrCodeInternal, "failed to create convert request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Conversion request failed", logging.Err(err))
		if ctx.Err() != nil {
			return "", false, errors.Wrap(err, errors.ErrCodeTimeout, "conversion cancelled")
		}
		return "", true, errors.Wrap(err, errors.ErrCodeExternalService, "converter unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", true, errors.Wrap(err, errors.ErrCodeExternalService, "failed to read converter response")
	}
	c.logger.Debug("Converter responded",
		logging.Int("status", resp.StatusCode),
		logging.Duration("duration", time.Since(start)))

	var out convertResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode >= 300 {
		detail := strings.TrimSpace(out.Error)
		if decodeErr != nil || detail == "" {
			detail = strings.TrimSpace(string(raw))
		}
		appErr := errors.New(errors.ErrCodeMoleculeConversionFailed, "structure conversion failed").WithDetail(detail)
		return "", resp.StatusCode >= 500, appErr
	}
	if decodeErr != nil {
		return "", false, errors.Wrap(decodeErr, errors.ErrCodeMoleculeConversionFailed, "invalid converter response")
	}
	if strings.TrimSpace(out.MolBlock) == "" {
		return "", false, errors.New(errors.ErrCodeMoleculeConversionFailed, "converter returned an empty record")
	}
	return out.MolBlock, false, nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if q := int64(backoff / 4); q > 0 {
		backoff += time.Duration(rand.Int63n(q))
	}
	return backoff
}

//Personal.AI order the ending
