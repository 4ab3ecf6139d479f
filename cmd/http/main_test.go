// Tests in this package use the standard testing package and t.Fatalf.

package main

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestServe_DrainsRequestsBeforeClosingService(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	var handlerDone, closedEarly, closed atomic.Bool

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		handlerDone.Store(true)
		w.WriteHeader(http.StatusOK)
	})}
	closeSvc := func() error {
		if !handlerDone.Load() {
			closedEarly.Store(true)
		}
		closed.Store(true)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	result := make(chan error, 1)
	go func() { result <- serve(ctx, srv, ln, closeSvc) }()

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-started
	cancel()
	time.Sleep(50 * time.Millisecond)
	if closed.Load() {
		t.Fatalf("expected service to stay open while a request is in flight")
	}

	close(release)
	if got := <-status; got != http.StatusOK {
		t.Fatalf("expected in-flight request to finish with 200, got %d", got)
	}
	if err := <-result; err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
	if !closed.Load() || closedEarly.Load() {
		t.Fatalf("expected service closed after the request drained (closed=%v early=%v)", closed.Load(), closedEarly.Load())
	}
}

func TestServe_ReportsListenerFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	_ = ln.Close()

	var closed atomic.Bool
	err = serve(context.Background(), &http.Server{}, ln, func() error {
		closed.Store(true)
		return nil
	})
	if err == nil {
		t.Fatalf("expected serve to fail on a closed listener")
	}
	if !closed.Load() {
		t.Fatalf("expected service to be closed after a serve failure")
	}
}
