package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocql/gocql"
	"github.com/segmentio/kafka-go"
)

// FollowEvent mirrors the follow toggle event the server publishes.
type FollowEvent struct {
	ActorID  string `json:"actor_id"`
	TargetID string `json:"target_id"`
	Outcome  string `json:"outcome"`
}

// LikeEvent mirrors the like toggle event the server publishes.
type LikeEvent struct {
	ActorID string `json:"actor_id"`
	PostID  string `json:"post_id"`
	Outcome string `json:"outcome"`
}

func main() {
	const (
		total       = 100000 // total number of messages to send
		batchSize   = 100    // batch size for sending messages
		numWorkers  = 4      // number of parallel goroutines
		kafkaBroker = "localhost:9092"
		topic       = "social-events"
	)

	// Kafka writer with asynchronous sending enabled
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers: []string{kafkaBroker},
		Topic:   topic,
		Async:   true,
	})
	defer w.Close()

	// A small fixed population of actors and targets so the audit worker
	// sees repeated toggles on the same edges and posts.
	actors := make([]string, 16)
	for i := range actors {
		actors[i] = gocql.TimeUUID().String()
	}
	posts := make([]string, 32)
	for i := range posts {
		posts[i] = gocql.TimeUUID().String()
	}

	start := time.Now()

	var successCount uint64
	var failCount uint64

	// Channel for feeding message indexes to worker goroutines
	jobs := make(chan int, total)
	var wg sync.WaitGroup

	// --- Start worker goroutines ---
	for wID := 0; wID < numWorkers; wID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := make([]kafka.Message, 0, batchSize)

			for i := range jobs {
				// Alternate between follow and like toggles
				var key string
				var payload any
				if i%2 == 0 {
					key = "follow_toggled"
					payload = FollowEvent{
						ActorID:  actors[rand.Intn(len(actors))],
						TargetID: actors[rand.Intn(len(actors))],
						Outcome:  toggleOutcome(i, "FOLLOWED", "UNFOLLOWED"),
					}
				} else {
					key = "like_toggled"
					payload = LikeEvent{
						ActorID: actors[rand.Intn(len(actors))],
						PostID:  posts[rand.Intn(len(posts))],
						Outcome: toggleOutcome(i, "LIKED", "UNLIKED"),
					}
				}

				v, err := json.Marshal(payload)
				if err != nil {
					atomic.AddUint64(&failCount, 1)
					fmt.Printf("marshal error: %v\n", err)
					continue
				}

				// Add message to batch
				batch = append(batch, kafka.Message{
					Key:   []byte(key),
					Value: v,
				})

				// Send batch if batch size reached
				if len(batch) >= batchSize {
					if err := w.WriteMessages(context.Background(), batch...); err != nil {
						atomic.AddUint64(&failCount, uint64(len(batch)))
						fmt.Printf("write error: %v\n", err)
					} else {
						atomic.AddUint64(&successCount, uint64(len(batch)))
					}
					batch = batch[:0] // clear the batch
				}
			}

			// Send any remaining messages after finishing loop
			if len(batch) > 0 {
				if err := w.WriteMessages(context.Background(), batch...); err != nil {
					atomic.AddUint64(&failCount, uint64(len(batch)))
					fmt.Printf("write error: %v\n", err)
				} else {
					atomic.AddUint64(&successCount, uint64(len(batch)))
				}
			}
		}()
	}

	// Feed jobs channel with indexes
	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)

	// Wait for all worker goroutines to finish
	wg.Wait()

	// --- Benchmark results ---
	elapsed := time.Since(start)
	fmt.Printf("Total messages: %d\n", total)
	fmt.Printf("Successful: %d, Failed: %d\n", successCount, failCount)
	fmt.Printf("Elapsed time: %s\n", elapsed)
	fmt.Printf("Throughput: %.2f msg/s\n", float64(successCount)/elapsed.Seconds())
}

// toggleOutcome alternates outcomes so the synthetic stream looks like
// real toggle traffic rather than one-way writes.
func toggleOutcome(i int, on, off string) string {
	if (i/2)%2 == 0 {
		return on
	}
	return off
}
