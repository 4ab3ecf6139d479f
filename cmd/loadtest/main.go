package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type sample struct {
	latency time.Duration
	status  int
	err     error
}

const (
	defaultRuleA = "(age > 30 AND department = 'Marketing') OR (salary > 20000 OR experience > 5)"
	defaultRuleB = "age < 65"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "rule engine base URL")
	mode := flag.String("mode", "evaluate", "what to hammer: evaluate (stored rule by id) or create")
	rules := flag.String("rules", defaultRuleA+";"+defaultRuleB, "semicolon separated rules to combine (evaluate) or parse (create)")
	rps := flag.Int("rps", 50, "target requests per second")
	duration := flag.Duration("duration", 60*time.Second, "test duration")
	workers := flag.Int("workers", 50, "number of concurrent workers")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP client timeout")
	p90Target := flag.Duration("p90", 30*time.Millisecond, "P90 latency target")
	flag.Parse()

	if *rps <= 0 || *duration <= 0 || *workers <= 0 {
		fmt.Fprintln(os.Stderr, "rps, duration and workers must be > 0")
		os.Exit(2)
	}

	client := &http.Client{Timeout: *timeout}
	ruleList := strings.Split(*rules, ";")

	var (
		url  string
		body []byte
		err  error
	)
	switch *mode {
	case "evaluate":
		id, err := combine(client, *base, ruleList)
		if err != nil {
			fmt.Fprintf(os.Stderr, "combine rules: %v\n", err)
			os.Exit(1)
		}
		url = *base + "/evaluate_rule"
		body, err = json.Marshal(map[string]any{
			"rule_id": id,
			"data":    map[string]any{"age": 35, "department": "Marketing", "salary": 15000, "experience": 3},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal payload: %v\n", err)
			os.Exit(1)
		}
	case "create":
		url = *base + "/create_rule"
		body, err = json.Marshal(map[string]any{"rule": ruleList[0]})
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal payload: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

	samples := run(client, url, body, *rps, *duration, *workers)
	if !report(samples, *mode, *rps, *duration, *p90Target) {
		os.Exit(1)
	}
}

func combine(client *http.Client, base string, rules []string) (string, error) {
	payload, err := json.Marshal(map[string]any{"rules": rules})
	if err != nil {
		return "", err
	}
	resp, err := client.Post(base+"/combine_rules", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		RuleID  string `json:"rule_id"`
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s: %s", resp.StatusCode, out.Error, out.Details)
	}
	return out.RuleID, nil
}

func run(client *http.Client, url string, body []byte, rps int, duration time.Duration, workers int) []sample {
	jobs := make(chan struct{}, workers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	samples := make([]sample, 0, rps*int(duration.Seconds())+1)
	record := func(s sample) {
		mu.Lock()
		samples = append(samples, s)
		mu.Unlock()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				start := time.Now()
				resp, err := client.Post(url, "application/json", bytes.NewReader(body))
				lat := time.Since(start)
				if err != nil {
					record(sample{latency: lat, err: err})
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				record(sample{latency: lat, status: resp.StatusCode})
			}
		}()
	}

	ticker := time.NewTicker(time.Second / time.Duration(rps))
	defer ticker.Stop()
	deadline := time.Now().Add(duration)

	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()

	return samples
}

func report(samples []sample, mode string, rps int, duration, p90Target time.Duration) bool {
	latencies := make([]time.Duration, 0, len(samples))
	ok2xx, non2xx, errs := 0, 0, 0
	for _, s := range samples {
		latencies = append(latencies, s.latency)
		switch {
		case s.err != nil:
			errs++
		case s.status >= 200 && s.status < 300:
			ok2xx++
		default:
			non2xx++
		}
	}

	if len(latencies) == 0 {
		fmt.Fprintln(os.Stderr, "no requests executed")
		return false
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p90 := percentile(latencies, 90)
	achievedRPS := float64(len(latencies)) / duration.Seconds()

	fmt.Printf("Load test finished\n")
	fmt.Printf("- mode: %s\n", mode)
	fmt.Printf("- target_rps: %d\n", rps)
	fmt.Printf("- achieved_rps: %.2f\n", achievedRPS)
	fmt.Printf("- duration: %s\n", duration.String())
	fmt.Printf("- requests: %d\n", len(latencies))
	fmt.Printf("- 2xx: %d\n", ok2xx)
	fmt.Printf("- non_2xx: %d\n", non2xx)
	fmt.Printf("- errors: %d\n", errs)
	fmt.Printf("- avg_ms: %.3f\n", ms(average(latencies)))
	fmt.Printf("- p50_ms: %.3f\n", ms(percentile(latencies, 50)))
	fmt.Printf("- p90_ms: %.3f\n", ms(p90))
	fmt.Printf("- p99_ms: %.3f\n", ms(percentile(latencies, 99)))

	if achievedRPS >= float64(rps)*0.98 && p90 < p90Target && errs == 0 && non2xx == 0 {
		fmt.Printf("PASS: meets %d RPS and P90 < %s\n", rps, p90Target)
		return true
	}
	fmt.Println("FAIL: does not meet target (or has request errors)")
	return false
}

func percentile(items []time.Duration, p int) time.Duration {
	if len(items) == 0 {
		return 0
	}
	return items[(len(items)-1)*p/100]
}

func average(items []time.Duration) time.Duration {
	if len(items) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range items {
		total += d
	}
	return total / time.Duration(len(items))
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
