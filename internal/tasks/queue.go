package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/interpreter"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const defaultQueueSize = 16

// Classifier maps an utterance to an intent. [*interpreter.Interpreter] implements it.
type Classifier interface {
	Classify(utterance string) interpreter.Intent
}

// Recorder persists processed utterances.
type Recorder interface {
	Record(ctx context.Context, utterance string, outcome *Outcome) error
}

// QueueOpts configures a [Queue].
type QueueOpts struct {
	Size      int      // Buffered utterances; defaults to 16
	RateLimit float64  // Commands per second; <= 0 disables throttling
	Burst     int      // Token bucket burst; defaults to 1
	Recorder  Recorder // Optional
	Logger    *log.Logger
}

// Queue serializes utterances from many producers onto a single worker.
type Queue struct {
	classifier Classifier
	executor   *Executor
	recorder   Recorder
	limiter    *rate.Limiter
	logger     *log.Logger

	items  chan string
	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a Queue. Call [Queue.Run] to start processing.
func NewQueue(classifier Classifier, executor *Executor, opts QueueOpts) *Queue {
	size := opts.Size
	if size <= 0 {
		size = defaultQueueSize
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Queue{
		classifier: classifier,
		executor:   executor,
		recorder:   opts.Recorder,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     shared.WithLogger(logger, "component", "queue"),
		items:      make(chan string, size),
	}
}

// Submit enqueues an utterance without blocking.
//
// Blank utterances are rejected with [shared.ErrInvalidInput]. A full buffer yields [shared.ErrQueueFull].
func (q *Queue) Submit(utterance string) error {
	if strings.TrimSpace(utterance) == "" {
		return fmt.Errorf("%w: empty utterance", shared.ErrInvalidInput)
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("%w: queue closed", shared.ErrServiceUnavailable)
	}

	select {
	case q.items <- utterance:
		return nil
	default:
		q.logger.Warn("dropping utterance", "utterance", utterance)
		return fmt.Errorf("%w: %d pending", shared.ErrQueueFull, cap(q.items))
	}
}

// SubmitWait enqueues an utterance, waiting for buffer space until ctx is done.
//
// Blank utterances are rejected with [shared.ErrInvalidInput].
func (q *Queue) SubmitWait(ctx context.Context, utterance string) error {
	if strings.TrimSpace(utterance) == "" {
		return fmt.Errorf("%w: empty utterance", shared.ErrInvalidInput)
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("%w: queue closed", shared.ErrServiceUnavailable)
	}

	select {
	case q.items <- utterance:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting utterances. Run drains what is buffered and returns.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
}

// Len returns the number of buffered utterances.
func (q *Queue) Len() int {
	return len(q.items)
}

// Run processes utterances until the queue is closed and drained or ctx is canceled.
//
// events may be nil. It is never closed by Run.
func (q *Queue) Run(ctx context.Context, events chan<- Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case utterance, ok := <-q.items:
			if !ok {
				return nil
			}
			if err := q.limiter.Wait(ctx); err != nil {
				q.sendEvent(ctx, events, droppedEvent(utterance, err))
				return ctx.Err()
			}
			q.process(ctx, utterance, events)
		}
	}
}

// Execute classifies and executes one utterance synchronously, bypassing the buffer and the rate limit.
// It does not record; callers that retry call [Queue.Record] once with the final outcome.
func (q *Queue) Execute(ctx context.Context, utterance string) (*Outcome, error) {
	return q.execute(ctx, utterance, nil)
}

// Record stores a processed utterance with the configured [Recorder]. Failures are logged.
func (q *Queue) Record(ctx context.Context, utterance string, outcome *Outcome) {
	if q.recorder == nil || outcome == nil {
		return
	}
	if err := q.recorder.Record(ctx, utterance, outcome); err != nil {
		q.logger.Warn("failed to record command", "error", err)
	}
}

func (q *Queue) process(ctx context.Context, utterance string, events chan<- Event) (*Outcome, error) {
	outcome, err := q.execute(ctx, utterance, events)
	q.Record(ctx, utterance, outcome)
	q.sendEvent(ctx, events, outcomeEvent(utterance, outcome, err))
	return outcome, err
}

func (q *Queue) execute(ctx context.Context, utterance string, events chan<- Event) (*Outcome, error) {
	q.sendEvent(ctx, events, receivedEvent(utterance))

	intent := q.classifier.Classify(utterance)
	q.sendEvent(ctx, events, classifiedEvent(utterance, intent))

	if intent.Understood() {
		q.sendEvent(ctx, events, executingEvent(utterance, intent))
	}

	return q.executor.Execute(ctx, intent)
}

// sendEvent sends an event through the channel. Progress events are dropped when the channel is full;
// final events wait for the reader until ctx is done.
func (q *Queue) sendEvent(ctx context.Context, events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	if ev.Phase.Final() {
		select {
		case events <- ev:
		case <-ctx.Done():
			q.logger.Warn("event not delivered", "phase", ev.Phase, "utterance", ev.Utterance)
		}
		return
	}
	select {
	case events <- ev:
	default:
	}
}
