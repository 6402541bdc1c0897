package moltbook

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	crosspostSubmolt  = "clawstreetbets"
	crosspostAttempts = 3
	queueDepth        = 64
)

type post struct {
	title string
	body  string
}

// Crossposter publishes new markets to m/clawstreetbets on its own worker
// goroutine. Enqueue never blocks the request path; when the platform key is
// unset or the queue is full the post is dropped with a log line. Failures
// are retried with doubling backoff and then swallowed — cross-posting is
// strictly best-effort and never rolls back the market creation behind it.
type Crossposter struct {
	client  *Client
	apiKey  string
	backoff time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan post
	done   chan struct{}
}

// NewCrossposter starts the worker. An empty apiKey disables posting.
func NewCrossposter(client *Client, apiKey string) *Crossposter {
	cp := &Crossposter{
		client:  client,
		apiKey:  apiKey,
		backoff: time.Second,
		queue:   make(chan post, queueDepth),
		done:    make(chan struct{}),
	}
	go cp.run()
	return cp
}

// Enqueue schedules a cross-post. Safe to call from request handlers, and
// safe to race Close: posts arriving during shutdown are dropped, never sent
// on the closed queue.
func (cp *Crossposter) Enqueue(title, body string) {
	if cp.apiKey == "" {
		return
	}
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.closed {
		log.Printf("[moltbook] crossposter closed, dropping %q", title)
		return
	}
	select {
	case cp.queue <- post{title: title, body: body}:
	default:
		log.Printf("[moltbook] crosspost queue full, dropping %q", title)
	}
}

// Close drains the queue and stops the worker. Idempotent.
func (cp *Crossposter) Close() {
	cp.mu.Lock()
	if !cp.closed {
		cp.closed = true
		close(cp.queue)
	}
	cp.mu.Unlock()
	<-cp.done
}

func (cp *Crossposter) run() {
	defer close(cp.done)
	for p := range cp.queue {
		cp.publish(p)
	}
}

func (cp *Crossposter) publish(p post) {
	backoff := cp.backoff
	for attempt := 1; attempt <= crosspostAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		err := cp.client.CreatePost(ctx, cp.apiKey, crosspostSubmolt, p.title, p.body)
		cancel()
		if err == nil {
			log.Printf("[moltbook] cross-posted %q to m/%s", p.title, crosspostSubmolt)
			return
		}
		if attempt == crosspostAttempts {
			log.Printf("[moltbook] giving up on cross-post %q: %v", p.title, err)
			return
		}
		log.Printf("[moltbook] cross-post %q attempt %d failed: %v", p.title, attempt, err)
		time.Sleep(backoff)
		backoff *= 2
	}
}
