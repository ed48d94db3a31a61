package bus

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestBus() *EventBus {
	return NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEmitAndOn(t *testing.T) {
	eb := newTestBus()

	var got []string
	eb.On(EventChatbotMessage, func(e Event) {
		got = append(got, e.Type)
	})
	eb.On("*", func(e Event) {
		got = append(got, "wildcard:"+e.Type)
	})

	eb.Emit(Event{Type: EventChatbotMessage, Source: "test"})
	eb.Emit(Event{Type: EventChatbotRead, Source: "test"})

	want := []string{
		EventChatbotMessage,
		"wildcard:" + EventChatbotMessage,
		"wildcard:" + EventChatbotRead,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOff(t *testing.T) {
	eb := newTestBus()

	calls := 0
	id := eb.On(EventMessageSent, func(e Event) { calls++ })
	eb.Emit(Event{Type: EventMessageSent})
	eb.Off(EventMessageSent, id)
	eb.Emit(Event{Type: EventMessageSent})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPanicIsolation(t *testing.T) {
	eb := newTestBus()

	ran := false
	eb.On(EventChatbotMessage, func(e Event) { panic("bad handler") })
	eb.On(EventChatbotMessage, func(e Event) { ran = true })

	eb.Emit(Event{Type: EventChatbotMessage})

	if !ran {
		t.Error("second handler did not run after first panicked")
	}
}

func TestReplay(t *testing.T) {
	eb := newTestBus()
	start := time.Now().Add(-time.Second)

	eb.Emit(Event{Type: EventChatbotMessage})
	eb.Emit(Event{Type: EventChatbotRead})
	eb.Emit(Event{Type: EventChatbotMessage})

	if got := len(eb.Replay(EventChatbotMessage, start)); got != 2 {
		t.Errorf("Replay(message) = %d, want 2", got)
	}
	if got := len(eb.Replay("*", start)); got != 3 {
		t.Errorf("Replay(*) = %d, want 3", got)
	}
	if got := len(eb.Replay("*", time.Now().Add(time.Hour))); got != 0 {
		t.Errorf("future Replay = %d, want 0", got)
	}
	if eb.HistoryLen() != 3 {
		t.Errorf("HistoryLen = %d, want 3", eb.HistoryLen())
	}
}

func TestHistoryBound(t *testing.T) {
	eb := newTestBus()
	eb.maxHistory = 5

	for i := 0; i < 10; i++ {
		eb.Emit(Event{Type: EventChatbotMessage})
	}
	if eb.HistoryLen() != 5 {
		t.Errorf("HistoryLen = %d, want capped at 5", eb.HistoryLen())
	}
}
