package overlay

import (
	"sync"
	"testing"
	"time"
)

func TestBusDeliversToTypedSubscriber(t *testing.T) {
	b := NewBus(8)
	defer b.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	var got Message
	b.Subscribe(MessageSetListening, func(m Message) {
		got = m
		wg.Done()
	})

	b.Publish(Message{Type: MessageSetListening})
	waitOrTimeout(t, &wg)

	if got.Type != MessageSetListening {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestBusDoesNotDeliverToOtherType(t *testing.T) {
	b := NewBus(8)
	defer b.Stop()

	called := make(chan struct{}, 1)
	b.Subscribe(MessageSetHidden, func(m Message) { called <- struct{}{} })
	b.Publish(Message{Type: MessageSetListening})

	select {
	case <-called:
		t.Fatal("handler for different type should not have been called")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusSubscribeAllReceivesEverything(t *testing.T) {
	b := NewBus(8)
	defer b.Stop()

	var wg sync.WaitGroup
	wg.Add(2)
	b.SubscribeAll(func(m Message) { wg.Done() })

	b.Publish(Message{Type: MessageSetListening})
	b.Publish(Message{Type: MessageSetHidden})
	waitOrTimeout(t, &wg)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(8)
	defer b.Stop()

	called := make(chan struct{}, 2)
	unsubscribe := b.Subscribe(MessageSetListening, func(m Message) { called <- struct{}{} })
	unsubscribe()

	b.Publish(Message{Type: MessageSetListening})
	select {
	case <-called:
		t.Fatal("unsubscribed handler should not have been called")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusHandlerPanicDoesNotCrashBus(t *testing.T) {
	b := NewBus(8)
	defer b.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	b.Subscribe(MessageSetListening, func(m Message) { panic("boom") })
	b.Subscribe(MessageSetListening, func(m Message) { wg.Done() })

	b.Publish(Message{Type: MessageSetListening})
	waitOrTimeout(t, &wg)
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for handler")
	}
}
