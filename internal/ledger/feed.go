package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/username/aviv-calendar/pkg/random"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultRetries     = 3
	maxRetries         = 3
	defaultBackoff     = time.Second
	backoffJitter      = 20.0
	maxFeedBodyBytes   = 1 << 20

	feedSource = "feed"
)

// Feed supplies the latest month-start records
type Feed interface {
	Fetch(ctx context.Context) (*FeedData, error)
}

// FeedData is the decoded content of one feed response
type FeedData struct {
	LastKnown     MonthRecord
	NextEstimated *MonthRecord
	AvivBarley    *bool
	FetchedAt     time.Time
}

// Records returns the month records carried by the feed, oldest first
func (d *FeedData) Records() []MonthRecord {
	records := []MonthRecord{d.LastKnown}
	if d.NextEstimated != nil {
		records = append(records, *d.NextEstimated)
	}
	return records
}

type feedMoon struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Start      string `json:"start"`
	Confidence string `json:"confidence,omitempty"`
}

type feedDocument struct {
	LastKnown     *feedMoon `json:"last_known_moon"`
	NextEstimated *feedMoon `json:"next_estimated_moon"`
	AvivBarley    *bool     `json:"aviv_barley"`
}

// FeedClient reads month starts from a JSON document over HTTP
type FeedClient struct {
	url        string
	httpClient *http.Client
	retries    int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewFeedClient creates a new FeedClient. Retries are clamped to 1..3.
func NewFeedClient(url string, timeout time.Duration, retries int, logger *zap.Logger) *FeedClient {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	if retries <= 0 {
		retries = defaultRetries
	}
	if retries > maxRetries {
		retries = maxRetries
	}

	return &FeedClient{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries: retries,
		backoff: defaultBackoff,
		logger:  logger,
	}
}

// Fetch downloads and decodes the feed, retrying transport failures.
// Every failure wraps ErrDataUnavailable.
func (c *FeedClient) Fetch(ctx context.Context) (*FeedData, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retries; attempt++ {
		body, err := c.fetchOnce(ctx)
		if err == nil {
			data, err := parseFeedDocument(body)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
			}
			data.FetchedAt = time.Now()

			c.logger.Info("Month-start feed fetched",
				zap.String("url", c.url),
				zap.String("last_known", data.LastKnown.Key.String()),
				zap.String("last_known_start", data.LastKnown.Epoch.Format("2006-01-02")))

			return data, nil
		}

		lastErr = err
		c.logger.Warn("Feed request failed, retrying",
			zap.String("url", c.url),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}

		if attempt < c.retries {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, ctx.Err())
			case <-time.After(random.Jitter(c.backoff*time.Duration(attempt), backoffJitter)):
			}
		}
	}

	return nil, fmt.Errorf("%w: request failed after %d attempts: %v", ErrDataUnavailable, c.retries, lastErr)
}

func (c *FeedClient) fetchOnce(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

func parseFeedDocument(body []byte) (*FeedData, error) {
	var doc feedDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed JSON: %w", err)
	}
	if doc.LastKnown == nil {
		return nil, fmt.Errorf("feed has no last_known_moon")
	}

	last, err := doc.LastKnown.record(Observed)
	if err != nil {
		return nil, fmt.Errorf("last_known_moon: %w", err)
	}

	data := &FeedData{
		LastKnown:  last,
		AvivBarley: doc.AvivBarley,
	}

	if doc.NextEstimated != nil {
		next, err := doc.NextEstimated.record(Estimated)
		if err != nil {
			return nil, fmt.Errorf("next_estimated_moon: %w", err)
		}
		if !next.Epoch.After(last.Epoch) {
			return nil, fmt.Errorf("next_estimated_moon %s does not start after %s", next.Key, last.Key)
		}
		data.NextEstimated = &next
	}

	return data, nil
}

func (m *feedMoon) record(fallback Confidence) (MonthRecord, error) {
	key, err := NewMonthKey(m.Year, m.Month)
	if err != nil {
		return MonthRecord{}, err
	}
	confidence := fallback
	if m.Confidence != "" {
		if confidence, err = ParseConfidence(m.Confidence); err != nil {
			return MonthRecord{}, err
		}
	}
	epoch, err := time.Parse("2006-01-02", m.Start)
	if err != nil {
		return MonthRecord{}, fmt.Errorf("invalid start date %q: %w", m.Start, err)
	}
	return NewMonthRecord(key, epoch, confidence, feedSource), nil
}
