package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Job requests preview (re)generation for one scene.
type Job struct {
	SceneID string `json:"scene_id"`
}

// Outbox buffers preview jobs emitted by scene mutations and dispatches
// them asynchronously. Enqueue never blocks the mutation path: when the
// buffer is full the job is dropped and counted.
type Outbox struct {
	jobs    chan Job
	client  *http.Client
	url     string
	logger  *slog.Logger
	metrics *Metrics
	done    chan struct{}
}

// DefaultBuffer is the outbox capacity.
const DefaultBuffer = 256

// requestTimeout bounds one dispatch attempt.
const requestTimeout = 10 * time.Second

// NewOutbox creates an outbox posting jobs to serviceURL. Metrics may be
// nil when dispatch accounting is not wanted (tests).
func NewOutbox(serviceURL string, logger *slog.Logger, metrics *Metrics) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{
		jobs:    make(chan Job, DefaultBuffer),
		client:  &http.Client{Timeout: requestTimeout},
		url:     serviceURL,
		logger:  logger,
		metrics: metrics,
		done:    make(chan struct{}),
	}
}

// Enqueue schedules preview generation for a scene. Fire-and-forget: a full
// buffer drops the job with a log line.
func (o *Outbox) Enqueue(sceneID string) {
	select {
	case o.jobs <- Job{SceneID: sceneID}:
	default:
		o.logger.Warn("preview outbox full, dropping job", "scene_id", sceneID)
		if o.metrics != nil {
			o.metrics.RecordDropped()
		}
	}
}

// Run dispatches jobs until ctx is cancelled, then drains nothing further.
// Dispatch failures are logged and counted, never retried.
func (o *Outbox) Run(ctx context.Context) {
	defer close(o.done)
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-o.jobs:
			o.dispatch(job)
		}
	}
}

// Wait blocks until Run has returned.
func (o *Outbox) Wait() {
	<-o.done
}

// dispatch runs under its own deadline, detached from Run's context, so a
// shutdown does not abort a request already on the wire.
func (o *Outbox) dispatch(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	start := time.Now()
	err := o.post(ctx, job)
	seconds := time.Since(start).Seconds()
	if err != nil {
		o.logger.Warn("preview request failed", "scene_id", job.SceneID, "error", err)
		if o.metrics != nil {
			o.metrics.RecordDispatch(StatusFailure, seconds)
		}
		return
	}
	o.logger.Debug("preview requested", "scene_id", job.SceneID)
	if o.metrics != nil {
		o.metrics.RecordDispatch(StatusSuccess, seconds)
	}
}

func (o *Outbox) post(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("preview service returned %d %s", e.code, http.StatusText(e.code))
}
