package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// mockSink records delivered events and can be set to fail.
type mockSink struct {
	mu     sync.Mutex
	name   string
	fail   bool
	events []Event
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Send(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("send failed")
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockSink) delivered() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func TestPublish_FansOutToAllSinks(t *testing.T) {
	a := &mockSink{name: "a"}
	b := &mockSink{name: "b"}
	n := New(zap.NewNop(), a, b)

	n.Publish(context.Background(), Event{Type: EventCardCompleted, TenantID: "t1", Title: "done"})

	for _, s := range []*mockSink{a, b} {
		got := s.delivered()
		if len(got) != 1 || got[0].Type != EventCardCompleted {
			t.Errorf("sink %s delivered %+v", s.name, got)
		}
		if got[0].Timestamp.IsZero() {
			t.Errorf("sink %s event has no timestamp", s.name)
		}
	}
}

func TestPublish_FailingSinkDoesNotBlockOthers(t *testing.T) {
	bad := &mockSink{name: "bad", fail: true}
	good := &mockSink{name: "good"}
	n := New(zap.NewNop(), bad, good)

	n.Publish(context.Background(), Event{Type: EventCardCreated, TenantID: "t1"})

	if got := good.delivered(); len(got) != 1 {
		t.Errorf("good sink delivered %d events, want 1", len(got))
	}
}

func TestPublish_NilNotifierAndNoSinks(t *testing.T) {
	var nilN *Notifier
	nilN.Publish(context.Background(), Event{Type: EventCardCreated})

	empty := New(nil)
	empty.Publish(context.Background(), Event{Type: EventCardCreated})
}
