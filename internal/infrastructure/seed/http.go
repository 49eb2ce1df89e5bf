package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/usecase"
)

// DefaultURL is the public placeholder API the seed tasks come from.
const DefaultURL = "https://jsonplaceholder.typicode.com/todos"

// HTTPSource fetches seed tasks from a remote JSON endpoint returning an
// array of {id, title, completed}.
type HTTPSource struct {
	client  *fasthttp.Client
	url     string
	limit   int
	timeout time.Duration
	logger  *zap.Logger
}

func NewHTTPSource(client *fasthttp.Client, rawURL string, limit int, timeout time.Duration, logger *zap.Logger) *HTTPSource {
	if client == nil {
		client = &fasthttp.Client{Name: "tasklist"}
	}
	if rawURL == "" {
		rawURL = DefaultURL
	}
	if limit <= 0 {
		limit = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{client: client, url: rawURL, limit: limit, timeout: timeout, logger: logger}
}

// Fetch requests at most limit records. Any transport, status or decoding
// failure is a network error.
func (s *HTTPSource) Fetch(ctx context.Context) ([]domain.SeedRecord, error) {
	target, err := s.requestURL()
	if err != nil {
		return nil, domain.NetworkError("invalid seed url", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NetworkError("fetch seed tasks", err)
	}

	start := time.Now()
	if err := s.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, domain.NetworkError("fetch seed tasks", err)
	}
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		return nil, domain.NetworkError("fetch seed tasks", fmt.Errorf("unexpected status %d", status))
	}

	var records []domain.SeedRecord
	if err := json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, domain.NetworkError("decode seed tasks", err)
	}
	if len(records) > s.limit {
		records = records[:s.limit]
	}

	s.logger.Debug("seed tasks fetched",
		zap.String("url", target),
		zap.Int("count", len(records)),
		zap.Duration("elapsed", time.Since(start)))
	return records, nil
}

func (s *HTTPSource) requestURL() (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("_limit", strconv.Itoa(s.limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var _ usecase.SeedSource = (*HTTPSource)(nil)
