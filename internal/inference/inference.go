package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/logging"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/mqtt"
)

// ErrPublishFailed wraps MQTT errors from a trigger publication.
var ErrPublishFailed = errors.New("inference: publish failed")

// Request is the payload published to the external ML pipeline.
//
// The pipeline reads its own inputs from the time-series store; this
// service only tells it which window and rooms to consider.
type Request struct {
	RequestID   string    `json:"request_id"`
	SiteID      string    `json:"site_id"`
	Rooms       []string  `json:"rooms"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	RequestedAt time.Time `json:"requested_at"`
}

// Publisher abstracts the MQTT client for testing.
type Publisher interface {
	PublishEvent(topic string, payload []byte) error
}

// Trigger publishes inference requests on schedule.
type Trigger struct {
	publisher Publisher
	topics    mqtt.Topics
	siteID    string
	rooms     []string
	logger    *logging.Logger
}

// New creates a Trigger.
//
// Parameters:
//   - publisher: MQTT publish surface
//   - siteID: Site identifier carried in every request
//   - rooms: Rooms the pipeline should consider
//   - logger: Structured logger
func New(publisher Publisher, siteID string, rooms []string, logger *logging.Logger) *Trigger {
	return &Trigger{
		publisher: publisher,
		siteID:    siteID,
		rooms:     rooms,
		logger:    logger,
	}
}

// Publish emits one inference request covering the given window.
//
// Returns:
//   - *Request: The published request, for logging and tests
//   - error: ErrPublishFailed if the broker rejects the publish
func (t *Trigger) Publish(windowStart, windowEnd time.Time) (*Request, error) {
	req := &Request{
		RequestID:   uuid.New().String(),
		SiteID:      t.siteID,
		Rooms:       t.rooms,
		WindowStart: windowStart.UTC(),
		WindowEnd:   windowEnd.UTC(),
		RequestedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %w", ErrPublishFailed, err)
	}

	if err := t.publisher.PublishEvent(t.topics.InferenceRequest(), data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	t.logger.Info("inference request published",
		"request_id", req.RequestID,
		"window_start", req.WindowStart.Format(time.RFC3339),
		"window_end", req.WindowEnd.Format(time.RFC3339),
	)
	return req, nil
}
