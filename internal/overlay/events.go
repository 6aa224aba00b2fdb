// Package overlay implements the daemon-to-GUI broadcast interface: one
// outbound message bus, which carries both control messages and spectrum
// frames (there is no separate spectrum-frame bus), and an inbound status
// channel, generalized from the same EventBus shape the
// teacher uses for its transcription-feedback events.
package overlay

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MessageType enumerates daemon-to-overlay control messages.
type MessageType string

const (
	MessageInitialize         MessageType = "overlay.initialize"
	MessageSetHidden          MessageType = "overlay.set_hidden"
	MessageSetListening       MessageType = "overlay.set_listening"
	MessageUpdateTranscription MessageType = "overlay.update_transcription"
	MessageUpdateSpectrum     MessageType = "overlay.update_spectrum"
	MessageUpdateVadState     MessageType = "overlay.update_vad_state"
	MessageSetProcessing      MessageType = "overlay.set_processing"
	MessageSetClosing         MessageType = "overlay.set_closing"
	MessageExit               MessageType = "overlay.exit"
)

// Message is one daemon-to-overlay broadcast event.
type Message struct {
	Type      MessageType
	Timestamp time.Time
	Data      interface{}
}

// UpdateTranscriptionData is the payload for MessageUpdateTranscription.
type UpdateTranscriptionData struct {
	Text    string
	IsFinal bool
}

// UpdateVadStateData is the payload for MessageUpdateVadState.
type UpdateVadStateData struct {
	IsSpeaking  bool
	TextSettled bool
}

// MessageHandler receives broadcast Messages.
type MessageHandler func(Message)

// subscription pairs a handler with a stable token so it can be removed by
// identity rather than by position (positions shift under concurrent
// unsubscribes).
type subscription struct {
	token   uint64
	handler MessageHandler
}

// Bus is a typed, non-blocking pub/sub broadcaster for overlay control
// messages: per-type subscriptions, an all-event subscription, buffered
// Publish that drops on a full queue rather than blocking the caller, and
// panic-recovered goroutine-per-handler dispatch.
type Bus struct {
	mu          sync.RWMutex
	nextToken   uint64
	handlers    map[MessageType][]subscription
	allHandlers []subscription

	buffer chan Message
	stopCh chan struct{}
	wg     sync.WaitGroup

	log *logrus.Entry
}

// NewBus creates a Bus with the given buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	b := &Bus{
		handlers: make(map[MessageType][]subscription),
		buffer:   make(chan Message, bufferSize),
		stopCh:   make(chan struct{}),
		log:      logrus.WithField("component", "overlay.bus"),
	}
	b.wg.Add(1)
	go b.dispatchLoop()
	return b
}

// Subscribe registers handler for a specific message type. The returned
// function unsubscribes it.
func (b *Bus) Subscribe(msgType MessageType, handler MessageHandler) func() {
	b.mu.Lock()
	b.nextToken++
	token := b.nextToken
	b.handlers[msgType] = append(b.handlers[msgType], subscription{token: token, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		hs := b.handlers[msgType]
		for i, s := range hs {
			if s.token == token {
				b.handlers[msgType] = append(hs[:i], hs[i+1:]...)
				break
			}
		}
	}
}

// SubscribeAll registers handler for every message type.
func (b *Bus) SubscribeAll(handler MessageHandler) func() {
	b.mu.Lock()
	b.nextToken++
	token := b.nextToken
	b.allHandlers = append(b.allHandlers, subscription{token: token, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.allHandlers {
			if s.token == token {
				b.allHandlers = append(b.allHandlers[:i], b.allHandlers[i+1:]...)
				break
			}
		}
	}
}

// Publish queues msg for delivery via a non-blocking send; the overlay is
// advisory, so a full buffer drops the message rather than blocking the
// state machine.
func (b *Bus) Publish(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	select {
	case b.buffer <- msg:
	default:
		b.log.WithField("type", msg.Type).Warn("overlay message dropped, buffer full")
	}
}

func (b *Bus) dispatchLoop() {
	defer b.wg.Done()
	for {
		select {
		case msg := <-b.buffer:
			b.deliver(msg)
		case <-b.stopCh:
			for {
				select {
				case msg := <-b.buffer:
					b.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(msg Message) {
	b.mu.RLock()
	handlers := append([]subscription{}, b.handlers[msg.Type]...)
	allHandlers := append([]subscription{}, b.allHandlers...)
	b.mu.RUnlock()

	for _, s := range handlers {
		go b.safeCall(s.handler, msg)
	}
	for _, s := range allHandlers {
		go b.safeCall(s.handler, msg)
	}
}

func (b *Bus) safeCall(h MessageHandler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{"type": msg.Type, "panic": r}).Error("overlay handler panic")
		}
	}()
	h(msg)
}

// Stop drains and shuts down the dispatch loop.
func (b *Bus) Stop() {
	close(b.stopCh)
	b.wg.Wait()
}

// StatusEventType enumerates overlay-to-daemon status events.
type StatusEventType string

const (
	StatusReady              StatusEventType = "status.ready"
	StatusTransitionComplete StatusEventType = "status.transition_complete"
	StatusError              StatusEventType = "status.error"
	StatusShuttingDown       StatusEventType = "status.shutting_down"
)

// StatusEvent is one overlay-to-daemon status notification.
type StatusEvent struct {
	Type StatusEventType
	From string
	To   string
	Err  string
}

// StatusChannel is the inbound channel the overlay uses to report status
// back to the daemon.
type StatusChannel chan StatusEvent

// NewStatusChannel creates a buffered StatusChannel.
func NewStatusChannel(bufferSize int) StatusChannel {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return make(StatusChannel, bufferSize)
}
