package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tmaxmax/go-sse"

	"nova-chat/backend/internal/interfaces"
	"nova-chat/backend/internal/model"
)

const shutdownGrace = 5 * time.Second

// EventBroker broadcasts the chat service's events to every client connected
// to the events endpoint.
type EventBroker struct {
	srv         *sse.Server
	unsubscribe func()
}

// NewEventBroker subscribes to chat and starts relaying its events.
func NewEventBroker(chat interfaces.ChatService) *EventBroker {
	b := &EventBroker{
		srv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      []string{sse.DefaultTopic},
				}, true
			},
		},
	}
	b.unsubscribe = chat.Subscribe(b)
	return b
}

// Observe publishes ev as an SSE message named after the event type.
func (b *EventBroker) Observe(ev model.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal event", "type", ev.Type, "error", err)
		return
	}
	msg := &sse.Message{Type: sse.Type(string(ev.Type))}
	msg.AppendData(string(data))
	if err := b.srv.Publish(msg); err != nil {
		slog.Debug("Could not publish event", "type", ev.Type, "error", err)
	}
}

func (b *EventBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.srv.ServeHTTP(w, r)
}

// Shutdown stops observing, says goodbye to connected clients and closes
// their connections.
func (b *EventBroker) Shutdown(ctx context.Context) error {
	b.unsubscribe()

	bye := &sse.Message{Type: sse.Type("close")}
	bye.AppendData("bye")
	_ = b.srv.Publish(bye)

	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	return b.srv.Shutdown(ctx)
}
