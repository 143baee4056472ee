package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Envelope mirrors the server's uniform response wrapper.
type Envelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// RegisterData is the data payload returned by POST /users.
type RegisterData struct {
	Profile struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"profile"`
	Token string `json:"token"`
}

// PostReq represents the JSON payload for creating a post
type PostReq struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func main() {
	// --- Command-line flags ---
	var server string
	var duration int
	var concurrency int
	var seedPosts int
	var csvFile string
	var trimPercent float64

	flag.StringVar(&server, "server", "https://localhost:8080", "server base URL")
	flag.IntVar(&duration, "duration", 30, "duration in seconds")
	flag.IntVar(&concurrency, "c", 50, "number of concurrent goroutines / readers")
	flag.IntVar(&seedPosts, "posts", 200, "posts to seed into the author account before reading")
	flag.StringVar(&csvFile, "csv", "latencies.csv", "CSV file to save latencies")
	flag.Float64Var(&trimPercent, "trim", 1.0, "percent of latency to trim from top and bottom for trimmed mean")
	flag.Parse()

	// --- Load client certificate for mTLS ---
	cert, err := tls.LoadX509KeyPair("../../certs/cert.pem", "../../certs/key.pem")
	if err != nil {
		panic(fmt.Sprintf("failed to load cert/key: %v", err))
	}

	// Configure HTTP client with TLS
	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
			},
		},
		Timeout: 10 * time.Second,
	}

	// --- Seed one author and fill its timeline ---
	fmt.Printf("Seeding author with %d posts...\n", seedPosts)
	author := register(client, server, fmt.Sprintf("load-author-%d", time.Now().UnixNano()))
	for i := 0; i < seedPosts; i++ {
		body := PostReq{
			Title: fmt.Sprintf("load post %d", i),
			Body:  fmt.Sprintf("seeded at %d", time.Now().UnixNano()),
		}
		b, _ := json.Marshal(body)
		req, _ := http.NewRequestWithContext(context.Background(), "POST", server+"/posts", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+author.Token)
		resp, err := client.Do(req)
		if err != nil {
			panic(fmt.Sprintf("failed to seed post: %v", err))
		}
		resp.Body.Close()
	}

	// --- Create readers, each following the author ---
	fmt.Printf("Creating %d readers...\n", concurrency)
	readers := make([]RegisterData, concurrency)
	for i := 0; i < concurrency; i++ {
		readers[i] = register(client, server, fmt.Sprintf("load-reader-%d-%d", i, time.Now().UnixNano()))

		req, _ := http.NewRequestWithContext(context.Background(), "POST", server+"/users/follow/"+author.Profile.ID, nil)
		req.Header.Set("Authorization", "Bearer "+readers[i].Token)
		resp, err := client.Do(req)
		if err != nil {
			panic(fmt.Sprintf("failed to follow author: %v", err))
		}
		resp.Body.Close()
	}
	fmt.Println("Readers created.")

	// --- Prepare concurrency test ---
	stopTime := time.Now().Add(time.Duration(duration) * time.Second)
	var wg sync.WaitGroup

	// Atomic counters for thread-safe tracking
	var requests int64
	var successes int64
	var errors4xx int64
	var errors5xx int64

	latencySlices := make([][]float64, concurrency) // each goroutine records latencies

	// --- Start concurrent goroutines for feed read load ---
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			reader := readers[idx]
			var localLatencies []float64
			page := 1

			// Keep reading feed pages until the test duration ends
			for time.Now().Before(stopTime) {
				start := time.Now()
				url := fmt.Sprintf("%s/feed?page=%d&page_size=5", server, page)
				req, _ := http.NewRequestWithContext(context.Background(), "GET", url, nil)
				req.Header.Set("Authorization", "Bearer "+reader.Token)

				resp, err := client.Do(req)
				lat := time.Since(start).Seconds() * 1000 // latency in ms
				localLatencies = append(localLatencies, lat)
				atomic.AddInt64(&requests, 1)

				if err != nil {
					fmt.Printf("Request error: %v\n", err)
					continue
				}

				// Count success/failure by status code
				if resp.StatusCode >= 200 && resp.StatusCode < 300 {
					atomic.AddInt64(&successes, 1)
				} else if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					atomic.AddInt64(&errors4xx, 1)
				} else if resp.StatusCode >= 500 {
					atomic.AddInt64(&errors5xx, 1)
				}
				resp.Body.Close()

				// Cycle through the first few pages to exercise offsets
				page++
				if page > 5 {
					page = 1
				}
			}

			latencySlices[idx] = localLatencies
		}(i)
	}

	wg.Wait()

	// --- Merge all latencies ---
	var allLatencies []float64
	for _, slice := range latencySlices {
		allLatencies = append(allLatencies, slice...)
	}
	sort.Float64s(allLatencies)

	// --- Compute statistics ---
	trimmedMeanVal := trimmedMean(allLatencies, trimPercent)
	p50 := percentile(allLatencies, 50)
	p90 := percentile(allLatencies, 90)
	p99 := percentile(allLatencies, 99)

	fmt.Printf("Requests: %d  Successes: %d  4xx: %d  5xx: %d\n", requests, successes, errors4xx, errors5xx)
	fmt.Printf("Latency (ms): trimmed_mean=%.2f p50=%.2f p90=%.2f p99=%.2f\n", trimmedMeanVal, p50, p90, p99)

	// --- Save latencies to CSV ---
	f, err := os.Create(csvFile)
	if err != nil {
		fmt.Printf("Failed to create CSV file: %v\n", err)
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{"latency_ms"})
	for _, d := range allLatencies {
		w.Write([]string{fmt.Sprintf("%.3f", d)})
	}
	fmt.Printf("Saved latencies to %s\n", csvFile)
}

// register creates a profile and returns its id plus a signed token.
func register(client *http.Client, server, username string) RegisterData {
	payload := map[string]string{"username": username}
	b, _ := json.Marshal(payload)

	resp, err := client.Post(server+"/users", "application/json", bytes.NewReader(b))
	if err != nil {
		panic(fmt.Sprintf("failed to create user: %v", err))
	}
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		panic(fmt.Sprintf("failed to decode register response: %v", err))
	}
	var data RegisterData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		panic(fmt.Sprintf("failed to decode register data: %v", err))
	}
	return data
}

// trimmedMean calculates mean latency after trimming top/bottom trimPercent values
func trimmedMean(data []float64, trimPercent float64) float64 {
	if len(data) == 0 {
		return 0
	}
	trim := int(float64(len(data)) * trimPercent / 100.0)
	if trim*2 >= len(data) {
		trim = len(data) / 2
	}
	trimmed := data[trim : len(data)-trim]
	var sum float64
	for _, v := range trimmed {
		sum += v
	}
	return sum / float64(len(trimmed))
}

// percentile calculates the p-th percentile from sorted data
func percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	k := (p / 100.0) * float64(len(data)-1)
	f := int(k)
	c := f + 1
	if c >= len(data) {
		return data[len(data)-1]
	}
	d0 := data[f]*(float64(c)-k) + data[c]*(k-float64(f))
	return d0
}
