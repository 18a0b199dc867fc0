package broadcast

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/osakwee57-dev/My-attendance/internal/model"
)

func sessionEvent(t EventType, dept, level string, hocID uuid.UUID) Event {
	return Event{
		Type: t,
		Session: model.Session{
			ID:         uuid.New(),
			HocID:      hocID,
			Department: dept,
			Level:      level,
			IsActive:   t == EventSessionOpened,
		},
	}
}

func recvEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.C:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event %s for session %s", ev.Type, ev.Session.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAudienceFilterMatchesDepartmentAndLevel(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe(Filter{Department: "Computer Engineering", Level: "300 Level"})
	defer sub.Close()

	bus.Publish(sessionEvent(EventSessionOpened, "Computer Engineering", "300 Level", uuid.New()))
	bus.Publish(sessionEvent(EventSessionOpened, "Computer Engineering", "400 Level", uuid.New()))
	bus.Publish(sessionEvent(EventSessionOpened, "Civil Engineering", "300 Level", uuid.New()))

	ev := recvEvent(t, sub)
	if ev.Session.Level != "300 Level" || ev.Session.Department != "Computer Engineering" {
		t.Fatalf("received event for wrong audience: %+v", ev.Session)
	}
	assertNoEvent(t, sub)
}

func TestIssuerFilter(t *testing.T) {
	bus := NewBus(nil)
	hocID := uuid.New()
	sub := bus.Subscribe(Filter{HocID: hocID})
	defer sub.Close()

	bus.Publish(sessionEvent(EventSessionClosed, "ME", "200 Level", uuid.New()))
	bus.Publish(sessionEvent(EventSessionClosed, "ME", "200 Level", hocID))

	ev := recvEvent(t, sub)
	if ev.Session.HocID != hocID {
		t.Fatalf("expected event for issuer %s, got %s", hocID, ev.Session.HocID)
	}
	assertNoEvent(t, sub)
}

func TestSessionFilterReceivesLogEvents(t *testing.T) {
	bus := NewBus(nil)
	ev := sessionEvent(EventAttendanceLogged, "EE", "100 Level", uuid.New())
	ev.Log = &model.AttendanceLog{ID: uuid.New(), SessionID: ev.Session.ID}

	sub := bus.Subscribe(Filter{SessionID: ev.Session.ID})
	defer sub.Close()
	other := bus.Subscribe(Filter{SessionID: uuid.New()})
	defer other.Close()

	bus.Publish(ev)

	got := recvEvent(t, sub)
	if got.Log == nil || got.Log.ID != ev.Log.ID {
		t.Fatalf("expected log payload to be delivered")
	}
	assertNoEvent(t, other)
}

func TestEventsDeliveredInOrder(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe(Filter{Department: "EE", Level: "100 Level"})
	defer sub.Close()

	opened := sessionEvent(EventSessionOpened, "EE", "100 Level", uuid.New())
	closed := opened
	closed.Type = EventSessionClosed
	closed.Session.IsActive = false

	bus.Publish(opened)
	bus.Publish(closed)

	if ev := recvEvent(t, sub); ev.Type != EventSessionOpened {
		t.Fatalf("expected opened first, got %s", ev.Type)
	}
	if ev := recvEvent(t, sub); ev.Type != EventSessionClosed {
		t.Fatalf("expected closed second, got %s", ev.Type)
	}
}

func TestNoBacklogForLateSubscribers(t *testing.T) {
	bus := NewBus(nil)
	bus.Publish(sessionEvent(EventSessionOpened, "EE", "100 Level", uuid.New()))

	sub := bus.Subscribe(Filter{Department: "EE", Level: "100 Level"})
	defer sub.Close()
	assertNoEvent(t, sub)
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	bus := NewBus(nil)
	done := make(chan struct{})
	go func() {
		bus.Publish(sessionEvent(EventSessionOpened, "EE", "100 Level", uuid.New()))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked with no subscribers")
	}
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe(Filter{Department: "EE", Level: "100 Level"})
	defer sub.Close()

	// Never read; overflow the buffer and then some.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			bus.Publish(sessionEvent(EventSessionOpened, "EE", "100 Level", uuid.New()))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe(Filter{})
	sub.Close()
	sub.Close()
	if n := bus.SubscriberCount(); n != 0 {
		t.Fatalf("expected 0 subscribers after close, got %d", n)
	}
	// Publishing after unsubscribe must not panic on the closed channel.
	bus.Publish(sessionEvent(EventSessionOpened, "EE", "100 Level", uuid.New()))
}
