package mail

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Retry policy for one message: first attempt plus retries with exponential
// backoff starting at RetryBaseDelay. A message that exhausts its attempts is
// logged and dropped (at-least-once overall, no dead-letter queue).
const (
	MaxAttempts    = 3
	RetryBaseDelay = 2 * time.Second
)

// Reader yields raw mail jobs from the queue. Satisfied by KafkaReader.
type Reader interface {
	ReadMessage(ctx context.Context) (RawMessage, error)
}

// RawMessage is one queue record.
type RawMessage struct {
	Value []byte
}

// Worker consumes mail jobs and delivers them through the Sender. It runs
// independently of request handlers and is never awaited by one.
type Worker struct {
	reader Reader
	sender Sender

	attempts  int
	baseDelay time.Duration
	sleepF    func(context.Context, time.Duration) bool
}

// NewWorker returns a worker reading jobs from reader and sending via sender.
func NewWorker(reader Reader, sender Sender) *Worker {
	return &Worker{
		reader:    reader,
		sender:    sender,
		attempts:  MaxAttempts,
		baseDelay: RetryBaseDelay,
		sleepF:    sleepCtx,
	}
}

// Run consumes until ctx is done. Read errors are logged and the loop
// continues; delivery errors go through the retry policy.
func (w *Worker) Run(ctx context.Context) {
	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("mail worker: stopped")
				return
			}
			log.Printf("mail worker: read error: %v", err)
			continue
		}
		w.deliver(ctx, msg.Value)
	}
}

// deliver decodes and sends one job, retrying with exponential backoff.
func (w *Worker) deliver(ctx context.Context, raw []byte) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		log.Printf("mail worker: dropping undecodable job: %v", err)
		return
	}
	delay := w.baseDelay
	for attempt := 1; attempt <= w.attempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := w.sender.Send(sendCtx, &m)
		cancel()
		if err == nil {
			return
		}
		if attempt == w.attempts {
			log.Printf("mail worker: giving up on %v after %d attempts: %v", m.To, attempt, err)
			return
		}
		log.Printf("mail worker: send to %v failed (attempt %d/%d): %v", m.To, attempt, w.attempts, err)
		if !w.sleepF(ctx, delay) {
			return
		}
		delay *= 2
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
