package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

// Envelope mirrors the server's uniform response wrapper.
type Envelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// User holds a registered profile id plus its signed token.
type User struct {
	ID    string
	Token string
}

// PostReq defines the request payload for creating a new post.
type PostReq struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Post represents a post entity returned by the API.
type Post struct {
	ID       string    `json:"id"`
	AuthorID string    `json:"author_id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Created  time.Time `json:"created"`
	Likes    int       `json:"likes"`
}

func main() {
	// CLI flags
	var serverAddr string
	var U, F, P, concurrency int
	var pollTimeout int

	flag.StringVar(&serverAddr, "server", "https://localhost:8080", "server base URL")
	flag.IntVar(&U, "users", 50, "number of users to create")
	flag.IntVar(&F, "follows", 10, "average follows per user")
	flag.IntVar(&P, "posts", 100, "number of posts to publish")
	flag.IntVar(&concurrency, "c", 20, "concurrency for posting")
	flag.IntVar(&pollTimeout, "timeout", 10, "seconds to wait for feed visibility")
	flag.Parse()

	ctx := context.Background()

	// --- TLS setup for secure communication ---
	cert, err := tls.LoadX509KeyPair("../../certs/cert.pem", "../../certs/key.pem")
	if err != nil {
		panic(fmt.Sprintf("failed to load cert/key: %v", err))
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
			},
		},
		Timeout: 10 * time.Second,
	}

	// --- 1) Create users ---
	fmt.Printf("Creating %d users...\n", U)
	users := make([]User, 0, U)
	for i := 0; i < U; i++ {
		payload := map[string]string{"username": fmt.Sprintf("user-%d-%d", i, time.Now().UnixNano())}
		b, _ := json.Marshal(payload)

		resp, err := client.Post(serverAddr+"/users", "application/json", bytes.NewReader(b))
		if err != nil {
			fmt.Printf("create user error: %v\n", err)
			os.Exit(1)
		}

		var env Envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			resp.Body.Close()
			fmt.Printf("decode user resp error: %v\n", err)
			os.Exit(1)
		}
		resp.Body.Close()

		var data struct {
			Profile struct {
				ID string `json:"id"`
			} `json:"profile"`
			Token string `json:"token"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			fmt.Printf("decode register data error: %v\n", err)
			os.Exit(1)
		}
		users = append(users, User{ID: data.Profile.ID, Token: data.Token})
	}
	fmt.Println("Users created successfully.")

	// --- 2) Build a token map for quick authorization lookup ---
	userTokens := make(map[string]string, len(users))
	for _, u := range users {
		userTokens[u.ID] = u.Token
	}

	// --- 3) Create follow edges between users ---
	// Each edge goes through the toggle endpoint once, so it ends FOLLOWED.
	fmt.Printf("Creating follows (~%d per user)...\n", F)
	followMap := make(map[string][]string)
	followed := make(map[string]bool)
	for _, u := range users {
		for j := 0; j < F; j++ {
			followee := users[rand.Intn(len(users))]
			if followee.ID == u.ID || followed[u.ID+"/"+followee.ID] {
				continue
			}
			req, _ := http.NewRequestWithContext(ctx, "POST", serverAddr+"/users/follow/"+followee.ID, nil)
			req.Header.Set("Authorization", "Bearer "+u.Token)

			resp, err := client.Do(req)
			if err != nil {
				fmt.Printf("follow error: %v\n", err)
				os.Exit(1)
			}
			resp.Body.Close()
			followed[u.ID+"/"+followee.ID] = true
			followMap[followee.ID] = append(followMap[followee.ID], u.ID)
		}
	}
	fmt.Println("Follow relationships established.")

	// --- 4) Publish posts concurrently, liking each one once ---
	fmt.Printf("Publishing %d posts with concurrency %d...\n", P, concurrency)
	type postRecord struct {
		PostID   string
		AuthorID string
		Created  time.Time
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency) // concurrency limiter
	postsCh := make(chan postRecord, P)

	for i := 0; i < P; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(n int) {
			defer wg.Done()
			defer func() { <-sem }()

			author := users[rand.Intn(len(users))]
			reqBody := PostReq{
				Title: fmt.Sprintf("e2e post %d", n),
				Body:  fmt.Sprintf("body %d", rand.Int()),
			}
			b, _ := json.Marshal(reqBody)

			req, _ := http.NewRequestWithContext(ctx, "POST", serverAddr+"/posts", bytes.NewReader(b))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+author.Token)

			resp, err := client.Do(req)
			if err != nil {
				fmt.Printf("post error: %v\n", err)
				return
			}

			var env Envelope
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				resp.Body.Close()
				fmt.Printf("decode post error: %v\n", err)
				return
			}
			resp.Body.Close()

			var p Post
			if err := json.Unmarshal(env.Data, &p); err != nil {
				fmt.Printf("decode post data error: %v\n", err)
				return
			}

			// A follower likes the fresh post to exercise the like toggle
			if fls := followMap[author.ID]; len(fls) > 0 {
				liker := userTokens[fls[rand.Intn(len(fls))]]
				lreq, _ := http.NewRequestWithContext(ctx, "POST", serverAddr+"/posts/"+p.ID+"/like", nil)
				lreq.Header.Set("Authorization", "Bearer "+liker)
				if lresp, err := client.Do(lreq); err == nil {
					lresp.Body.Close()
				}
			}

			postsCh <- postRecord{PostID: p.ID, AuthorID: p.AuthorID, Created: p.Created}
		}(i)
	}

	wg.Wait()
	close(postsCh)

	// --- 5) Verify post visibility in followers' feeds ---
	fmt.Println("Checking feed visibility...")
	var latencies []float64
	var latMu sync.Mutex
	var failCount int64
	var checksWg sync.WaitGroup

	for pr := range postsCh {
		followers := followMap[pr.AuthorID]
		for _, fid := range followers {
			checksWg.Add(1)
			go func(pr postRecord, fid string) {
				defer checksWg.Done()
				deadline := time.Now().Add(time.Duration(pollTimeout) * time.Second)
				token := userTokens[fid]

				// Walk feed pages until the post appears or the deadline hits.
				// The feed is assembled on read, so usually the first pass wins.
				for time.Now().Before(deadline) {
					if feedContains(ctx, client, serverAddr, token, pr.PostID) {
						lat := time.Since(pr.Created).Seconds() * 1000
						latMu.Lock()
						latencies = append(latencies, lat)
						latMu.Unlock()
						return
					}
					time.Sleep(200 * time.Millisecond)
				}

				latMu.Lock()
				failCount++
				latMu.Unlock()
			}(pr, fid)
		}
	}

	checksWg.Wait()

	// --- 6) Compute latency statistics and export to CSV ---
	if len(latencies) == 0 {
		fmt.Println("No successful feed reads recorded.")
	} else {
		trimPercent := 1.0
		meanVal := trimmedMean(latencies, trimPercent)
		p50 := trimmedPercentile(latencies, 50, trimPercent)
		p90 := trimmedPercentile(latencies, 90, trimPercent)
		p99 := trimmedPercentile(latencies, 99, trimPercent)
		fmt.Printf("Visibility stats (ms): count=%d mean=%.2f p50=%.2f p90=%.2f p99=%.2f fails=%d\n",
			len(latencies), meanVal, p50, p90, p99, failCount)

		// Export latencies to CSV
		f, _ := os.Create("e2e_latencies.csv")
		w := csv.NewWriter(f)
		w.Write([]string{"latency_ms"})
		for _, v := range latencies {
			w.Write([]string{fmt.Sprintf("%.3f", v)})
		}
		w.Flush()
		f.Close()
		fmt.Println("Saved e2e_latencies.csv")
	}
}

// feedContains pages through a follower's feed looking for one post id.
// It stops at the first empty page.
func feedContains(ctx context.Context, client *http.Client, serverAddr, token, postID string) bool {
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/feed?page=%d&page_size=5", serverAddr, page)
		req, _ := http.NewRequestWithContext(ctx, "GET", url, nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := client.Do(req)
		if err != nil {
			return false
		}

		var env Envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			resp.Body.Close()
			return false
		}
		resp.Body.Close()

		var posts []Post
		if err := json.Unmarshal(env.Data, &posts); err != nil {
			return false
		}
		if len(posts) == 0 {
			return false
		}
		for _, p := range posts {
			if p.ID == postID {
				return true
			}
		}
	}
}

// trimmedMean calculates the mean of a dataset excluding extreme values.
func trimmedMean(data []float64, trimPercent float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sort.Float64s(data)
	trim := int(float64(len(data)) * trimPercent / 100.0)
	if trim*2 >= len(data) {
		trim = len(data) / 2
	}
	data = data[trim : len(data)-trim]
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// trimmedPercentile returns a percentile value after trimming extremes.
func trimmedPercentile(data []float64, p float64, trimPercent float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sort.Float64s(data)
	trim := int(float64(len(data)) * trimPercent / 100.0)
	if trim*2 >= len(data) {
		trim = len(data) / 2
	}
	data = data[trim : len(data)-trim]
	return percentile(data, p)
}

// percentile calculates the requested percentile using linear interpolation.
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
	d0 := data[f] * (float64(c) - k)
	d1 := data[c] * (k - float64(f))
	return d0 + d1
}
