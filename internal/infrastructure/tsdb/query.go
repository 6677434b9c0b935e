package tsdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Sample is a single timestamped value from a range query.
//
// Value keeps the store's string form: raw values flow to the change
// detector untouched, which owns parsing and data-quality decisions.
type Sample struct {
	Timestamp time.Time
	Value     string
}

// Series is one matched time series with its label set and samples,
// ordered by timestamp ascending as returned by the store.
type Series struct {
	Labels  map[string]string
	Samples []Sample
}

// QueryRange executes a PromQL range query and returns the matched series.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - query: PromQL query string
//   - start: Start time for the range (inclusive)
//   - end: End time for the range (inclusive)
//   - step: Query resolution step
//
// Returns:
//   - []Series: Matched series with ordered samples
//   - error: ErrTimeout, ErrUnavailable, ErrQueryFailed, or ErrBadResponse
func (c *Client) QueryRange(ctx context.Context, query string, start, end time.Time, step time.Duration) ([]Series, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrQueryFailed)
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive", ErrQueryFailed)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrQueryFailed)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("start", formatUnixSeconds(start))
	params.Set("end", formatUnixSeconds(end))
	params.Set("step", formatStepSeconds(step))

	body, err := c.doGet(ctx, "/api/v1/query_range", params)
	if err != nil {
		return nil, err
	}

	return decodeMatrix(body)
}

// SeriesLabels queries the series metadata endpoint for label sets
// matching the given selector over a time range. Used for device
// discovery: every distinct label set is one known series.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - match: PromQL series selector (e.g. `setpoint{room_id="room-101"}`)
//   - start: Start of the discovery window
//   - end: End of the discovery window
//
// Returns:
//   - []map[string]string: One label set per matched series
//   - error: ErrTimeout, ErrUnavailable, ErrQueryFailed, or ErrBadResponse
func (c *Client) SeriesLabels(ctx context.Context, match string, start, end time.Time) ([]map[string]string, error) {
	if strings.TrimSpace(match) == "" {
		return nil, fmt.Errorf("%w: match selector is required", ErrQueryFailed)
	}

	params := url.Values{}
	params.Set("match[]", match)
	params.Set("start", formatUnixSeconds(start))
	params.Set("end", formatUnixSeconds(end))

	body, err := c.doGet(ctx, "/api/v1/series", params)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Status string              `json:"status"`
		Data   []map[string]string `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	if envelope.Status != "success" {
		return nil, fmt.Errorf("%w: status %q", ErrQueryFailed, envelope.Status)
	}

	return envelope.Data, nil
}

// doGet executes a GET request against the Prometheus API and returns the
// raw response body, classifying transport failures into sentinel errors.
func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.url + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrQueryFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		// http.Client wraps its own timeout in a url.Error with Timeout()=true.
		var urlErr interface{ Timeout() bool }
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	const maxResponseSize = 10 << 20 // 10 MB
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrQueryFailed, resp.StatusCode)
	}

	return body, nil
}

// decodeMatrix parses a Prometheus matrix response into Series values.
func decodeMatrix(body []byte) ([]Series, error) {
	var envelope struct {
		Status string `json:"status"`
		Data   struct {
			ResultType string `json:"resultType"`
			Result     []struct {
				Metric map[string]string `json:"metric"`
				Values [][2]json.RawMessage `json:"values"`
			} `json:"result"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	if envelope.Status != "success" {
		return nil, fmt.Errorf("%w: status %q", ErrQueryFailed, envelope.Status)
	}
	if envelope.Data.ResultType != "matrix" {
		return nil, fmt.Errorf("%w: unexpected result type %q", ErrBadResponse, envelope.Data.ResultType)
	}

	series := make([]Series, 0, len(envelope.Data.Result))
	for _, result := range envelope.Data.Result {
		s := Series{
			Labels:  result.Metric,
			Samples: make([]Sample, 0, len(result.Values)),
		}
		for _, pair := range result.Values {
			sample, err := decodeSample(pair)
			if err != nil {
				return nil, err
			}
			s.Samples = append(s.Samples, sample)
		}
		series = append(series, s)
	}

	return series, nil
}

// decodeSample parses one [timestamp, "value"] pair from a matrix result.
func decodeSample(pair [2]json.RawMessage) (Sample, error) {
	var seconds float64
	if err := json.Unmarshal(pair[0], &seconds); err != nil {
		return Sample{}, fmt.Errorf("%w: sample timestamp: %w", ErrBadResponse, err)
	}

	var value string
	if err := json.Unmarshal(pair[1], &value); err != nil {
		return Sample{}, fmt.Errorf("%w: sample value: %w", ErrBadResponse, err)
	}

	nanos := int64(seconds * float64(time.Second))
	return Sample{
		Timestamp: time.Unix(0, nanos).UTC(),
		Value:     value,
	}, nil
}

// formatUnixSeconds converts a timestamp to a seconds-since-epoch string.
func formatUnixSeconds(t time.Time) string {
	seconds := float64(t.UnixNano()) / float64(time.Second)
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// formatStepSeconds converts a step duration to a Prometheus-compatible seconds string.
func formatStepSeconds(step time.Duration) string {
	return strconv.FormatFloat(step.Seconds(), 'f', -1, 64)
}
