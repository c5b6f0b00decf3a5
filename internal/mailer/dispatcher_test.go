package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDispatcherDeliversQueuedMessages(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, 8, nil)
	d.Start(context.Background())

	d.Enqueue(Message{To: "alice@example.com", Subject: "Reset your password"})
	d.Enqueue(Message{To: "bob@example.com", Subject: "Reset your password"})
	d.Close()

	require.Equal(t, 2, sender.count())
	assert.Equal(t, "alice@example.com", sender.sent[0].To)
}

func TestDispatcherEnqueueNeverBlocksWhenFull(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, 1, nil)
	// Worker not started: the queue can only hold one message.

	done := make(chan struct{})
	go func() {
		d.Enqueue(Message{To: "a@example.com"})
		d.Enqueue(Message{To: "b@example.com"})
		d.Enqueue(Message{To: "c@example.com"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestDispatcherKeepsGoingAfterSendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, 8, nil)
	d.Start(context.Background())

	d.Enqueue(Message{To: "a@example.com"})
	d.Enqueue(Message{To: "b@example.com"})
	d.Close()

	assert.Equal(t, 2, sender.count())
}
