package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	appkafka "example.com/minitwitter/internal/broker"
	"example.com/minitwitter/internal/logger"
	"example.com/minitwitter/internal/models"
	"example.com/minitwitter/internal/store"
	"github.com/segmentio/kafka-go"
)

var logg = logger.New()

// Worker consumes domain events from Kafka and re-checks the graph and
// counter invariants against the store: after a like toggle the counter
// must equal the liking-set size, and after a follow toggle both edge
// views must agree. Drift is logged as an error; the request path never
// waits on this.
type Worker struct {
	store        store.StoreInterface
	reader       appkafka.KafkaReader
	workerCount  int
	jobQueueSize int
}

// New creates a new concurrent Worker using pre-initialized dependencies.
func New(store store.StoreInterface, reader appkafka.KafkaReader, workerCount, jobQueueSize int) *Worker {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if jobQueueSize <= 0 {
		jobQueueSize = workerCount * 10
	}
	return &Worker{
		store:        store,
		reader:       reader,
		workerCount:  workerCount,
		jobQueueSize: jobQueueSize,
	}
}

// Run starts message reading and concurrent processing.
func (w *Worker) Run(ctx context.Context) {
	if w.workerCount <= 0 {
		w.workerCount = 1
	}
	if w.jobQueueSize <= 0 {
		w.jobQueueSize = 10
	}

	logg.Info("worker", "Starting "+fmt.Sprint(w.workerCount)+" workers with queue size "+fmt.Sprint(w.jobQueueSize))

	jobs := make(chan kafka.Message, w.jobQueueSize)
	var wg sync.WaitGroup

	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.processLoop(ctx, jobs)
		}(i)
	}

	w.readLoop(ctx, jobs)

	close(jobs)
	wg.Wait()
	logg.Info("worker", "All workers stopped gracefully")
}

// readLoop reads Kafka messages and pushes them into a job queue.
func (w *Worker) readLoop(ctx context.Context, jobs chan<- kafka.Message) {
	var retry int
	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg, err := w.reader.ReadMessage(ctx)
			if err != nil {
				backoff := time.Duration(math.Min(1000, math.Pow(2, float64(retry)))) * time.Millisecond
				logg.Error("worker", "Kafka read error, backing off", err)
				if !waitWithContext(ctx, backoff) {
					return
				}
				retry++
				continue
			}
			retry = 0

			if len(msg.Value) == 0 {
				if !waitWithContext(ctx, 50*time.Millisecond) {
					return
				}
				continue
			}

			select {
			case jobs <- msg:
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
				logg.Info("worker", "Queue full, waiting to enqueue Kafka message")
			}
		}
	}
}

// processLoop dispatches events to the matching invariant check.
func (w *Worker) processLoop(ctx context.Context, jobs <-chan kafka.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.Audit(msg); err != nil {
				logg.Error("worker", "Audit failed", err)
			}
		}
	}
}

// Audit runs the invariant check matching one event. It returns an error
// when an invariant does not hold or the event cannot be checked.
func (w *Worker) Audit(msg kafka.Message) error {
	switch string(msg.Key) {
	case models.EventLikeToggled:
		var ev models.LikeEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			return fmt.Errorf("invalid JSON in like event: %w", err)
		}
		return w.auditLikeCounter(ev.PostID)
	case models.EventFollowToggled:
		var ev models.FollowEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			return fmt.Errorf("invalid JSON in follow event: %w", err)
		}
		return w.auditFollowEdge(ev.ActorID, ev.TargetID)
	case models.EventPostCreated:
		// Nothing to reconcile for a fresh post.
		return nil
	default:
		logg.Debug("worker", "Skipping unknown event key")
		return nil
	}
}

// auditLikeCounter verifies the denormalized counter equals the set size.
func (w *Worker) auditLikeCounter(postID string) error {
	counter, setSize, err := w.store.LikeState(postID)
	if err != nil {
		return fmt.Errorf("read like state: %w", err)
	}
	if counter != setSize {
		return fmt.Errorf("like counter drift: counter=%d set=%d", counter, setSize)
	}
	logg.Debug("worker", "Like counter consistent (post id anonymized)")
	return nil
}

// auditFollowEdge verifies the followee and follower views agree.
func (w *Worker) auditFollowEdge(actorID, targetID string) error {
	inFollowees, inFollowers, err := w.store.FollowEdgeState(actorID, targetID)
	if err != nil {
		return fmt.Errorf("read follow edge state: %w", err)
	}
	if inFollowees != inFollowers {
		return fmt.Errorf("follow edge asymmetry: followees=%t followers=%t", inFollowees, inFollowers)
	}
	logg.Debug("worker", "Follow edge symmetric (profile ids anonymized)")
	return nil
}

// waitWithContext waits for duration or context cancellation.
func waitWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close shuts down Kafka reader and Cassandra session.
func (w *Worker) Close() error {
	logg.Info("worker", "Closing Kafka reader")
	if err := w.reader.Close(); err != nil {
		logg.Error("worker", "Error closing Kafka reader", err)
		return err
	}

	logg.Info("worker", "Closing Cassandra session")
	w.store.Close()
	return nil
}
