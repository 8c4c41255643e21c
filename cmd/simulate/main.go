package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Fires concurrent create-appointment requests at one slot to observe the
// capacity race: with an empty slot, exactly 4 of N requests should win and
// the rest should come back 409 slot_unavailable or slot_being_booked.

type result struct {
	status  int
	code    string
	latency time.Duration
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "api-server base URL")
		workers  = flag.Int("workers", 20, "concurrent create requests")
		date     = flag.String("date", time.Now().AddDate(0, 0, 7).Format("2006-01-02"), "target slot date")
		slotTime = flag.String("time", "09:00", "target slot time")
	)
	flag.Parse()

	log.Printf("hammering slot %s %s with %d concurrent creates", *date, *slotTime, *workers)

	var (
		wg      sync.WaitGroup
		results = make([]result, *workers)
		started atomic.Int64
	)

	start := make(chan struct{})
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Add(1)
			<-start

			results[i] = createAppointment(*baseURL, *date, *slotTime)
		}(i)
	}

	// Wait for every worker to be parked on the start gate, then release
	for int(started.Load()) < *workers {
		time.Sleep(time.Millisecond)
	}
	t0 := time.Now()
	close(start)
	wg.Wait()
	elapsed := time.Since(t0)

	report(results, elapsed)
}

func createAppointment(baseURL, date, slotTime string) result {
	body, _ := json.Marshal(map[string]string{
		"patient_id":       uuid.NewString(),
		"patient_name":     fmt.Sprintf("Load Tester %s", uuid.NewString()[:8]),
		"reason_for_visit": "capacity race check",
		"date":             date,
		"time":             slotTime,
	})

	t0 := time.Now()
	resp, err := http.Post(baseURL+"/appointments", "application/json", bytes.NewReader(body))
	latency := time.Since(t0)
	if err != nil {
		return result{status: -1, code: err.Error(), latency: latency}
	}
	defer resp.Body.Close()

	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &payload)

	return result{status: resp.StatusCode, code: payload.Error, latency: latency}
}

func report(results []result, elapsed time.Duration) {
	var created, conflict, other int
	codes := make(map[string]int)
	latencies := make([]time.Duration, 0, len(results))

	for _, r := range results {
		latencies = append(latencies, r.latency)
		switch {
		case r.status == http.StatusCreated:
			created++
		case r.status == http.StatusConflict:
			conflict++
			codes[r.code]++
		default:
			other++
			codes[r.code]++
		}
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p50 := latencies[len(latencies)/2]
	p99 := latencies[len(latencies)*99/100]

	log.Printf("done in %s: created=%d conflict=%d other=%d p50=%s p99=%s",
		elapsed, created, conflict, other, p50, p99)
	for code, n := range codes {
		log.Printf("  %-24s %d", code, n)
	}

	if created > 4 {
		log.Printf("CAPACITY VIOLATION: %d creates landed in one slot", created)
	}
}
