package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Soaks the admin enqueue endpoint to size the queue workers: every request
// becomes an alert-check job, so watching /v1/queue/stats during a run shows
// whether the consumers keep up at the offered rate.
func main() {
	targetURL := flag.String("url", "http://localhost:9091/v1/enqueue/alert-check", "Admin enqueue endpoint")
	apiKey := flag.String("api-key", "", "Admin API key (X-API-Key header)")
	ruleIDs := flag.String("rules", "", "Comma-separated rule IDs to cycle through (random UUIDs when empty)")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 200, "Requests per second limit")
	flag.Parse()

	var rules []string
	if *ruleIDs != "" {
		rules = strings.Split(*ruleIDs, ",")
	}

	log.Printf("Starting enqueue soak on %s", *targetURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d, Rules: %d", *concurrency, *duration, *rps, len(rules))

	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 50)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}

			n := 0
			for {
				select {
				case <-ctx.Done():
					return
				default:
					limiter.Wait(ctx)

					ruleID := uuid.NewString()
					if len(rules) > 0 {
						ruleID = rules[n%len(rules)]
						n++
					}
					payload := fmt.Sprintf(`{"rule_id": "%s"}`, ruleID)

					req, err := http.NewRequestWithContext(ctx, http.MethodPost, *targetURL, bytes.NewBufferString(payload))
					if err != nil {
						continue
					}
					req.Header.Set("Content-Type", "application/json")
					if *apiKey != "" {
						req.Header.Set("X-API-Key", *apiKey)
					}

					resp, err := client.Do(req)
					if err != nil {
						errorCount.Add(1)
						continue
					}

					if resp.StatusCode == http.StatusAccepted {
						successCount.Add(1)
					} else {
						errorCount.Add(1)
					}
					resp.Body.Close()
				}
			}
		}(i)
	}

	wg.Wait()

	totalRequests := successCount.Load() + errorCount.Load()
	actualRPS := float64(totalRequests) / duration.Seconds()

	log.Println("Soak finished.")
	log.Printf("Total Requests: %d", totalRequests)
	log.Printf("Accepted (202): %d", successCount.Load())
	log.Printf("Errors: %d", errorCount.Load())
	log.Printf("Actual RPS: %.2f", actualRPS)
}
