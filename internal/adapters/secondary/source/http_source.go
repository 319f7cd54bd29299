package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// maxExportBytes caps how much of a response body is read.
const maxExportBytes = 256 << 20

var errMalformed = errors.New("malformed export")

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	URL     string
	Timeout time.Duration
	// BearerToken is sent as an Authorization header when set.
	BearerToken string
	Retry       RetryConfig
}

// HTTPSource downloads a JSON array export with a GET request.
type HTTPSource struct {
	url        string
	name       string
	token      string
	httpClient *http.Client
	retry      RetryConfig
	logger     *slog.Logger
}

var _ ports.RawIncidentSource = (*HTTPSource)(nil)

// NewHTTPSource creates a source for cfg.URL.
func NewHTTPSource(cfg HTTPConfig, logger *slog.Logger) *HTTPSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	name := "http:" + cfg.URL
	if u, err := url.Parse(cfg.URL); err == nil && u.Host != "" {
		name = "http:" + u.Host
	}

	return &HTTPSource{
		url:        cfg.URL,
		name:       name,
		token:      cfg.BearerToken,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      cfg.Retry,
		logger:     logger.With("component", "http_source"),
	}
}

// Name returns "http:" followed by the endpoint host.
func (s *HTTPSource) Name() string {
	return s.name
}

// FetchIncidents downloads and decodes the export, retrying transport
// failures and 5xx answers.
func (s *HTTPSource) FetchIncidents(ctx context.Context) ([]domain.RawIncidentRecord, error) {
	var records []domain.RawIncidentRecord
	attempt := 0

	err := withRetry(ctx, s.retry, func() error {
		attempt++
		var err error
		records, err = s.fetchOnce(ctx)
		if err != nil && retryable(err) {
			s.logger.WarnContext(ctx, "export download failed", "attempt", attempt, "error", err)
		}
		return err
	})
	if err == nil {
		return records, nil
	}

	if errors.Is(err, errMalformed) {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrSourceMalformed, s.name, err)
	}
	return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrSourceUnavailable, s.name, err)
}

func (s *HTTPSource) fetchOnce(ctx context.Context) ([]domain.RawIncidentRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &statusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	records, err := domain.DecodeRawIncidents(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}
	return records, nil
}

func httpStatus(code int) string {
	if text := http.StatusText(code); text != "" {
		return strconv.Itoa(code) + " " + text
	}
	return strconv.Itoa(code)
}
