// Package notify delivers booking events to users: over their live socket
// when they have one, otherwise as a push notification.
package notify

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"repairhub-server/services"
	"repairhub-server/websocket"
)

const pushTimeout = 10 * time.Second

// Live is the socket side, implemented by *websocket.Hub.
type Live interface {
	SendToUser(userID uint, message *websocket.Message) bool
}

// Pusher sends one push message to one device token.
type Pusher interface {
	Send(ctx context.Context, token string, event services.Event) error
}

// Dispatcher implements services.Notifier.
type Dispatcher struct {
	live   Live
	pusher Pusher
	tokens services.PushTokenStore

	wg sync.WaitGroup
}

// NewDispatcher builds a dispatcher. pusher may be nil when push delivery
// is not configured; events for offline users are then dropped.
func NewDispatcher(live Live, pusher Pusher, tokens services.PushTokenStore) *Dispatcher {
	return &Dispatcher{live: live, pusher: pusher, tokens: tokens}
}

// Notify never blocks on the push provider: the push fallback runs in the
// background and is awaited by Wait.
func (d *Dispatcher) Notify(ctx context.Context, userID uint, event services.Event) error {
	delivered := d.live.SendToUser(userID, &websocket.Message{
		Type:  event.Type,
		Title: event.Title,
		Body:  event.Body,
		Data:  event.Data,
	})
	if delivered || d.pusher == nil {
		return nil
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		defer cancel()
		d.push(pctx, userID, event)
	}()
	return nil
}

func (d *Dispatcher) push(ctx context.Context, userID uint, event services.Event) {
	tokens, err := d.tokens.ActiveTokens(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Failed to load push tokens for user %d: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		log.Printf("⚠️ User %d is offline with no push tokens, %s dropped", userID, event.Type)
		return
	}
	for _, token := range tokens {
		err := d.pusher.Send(ctx, token, event)
		switch {
		case err == nil:
		case errors.Is(err, ErrTokenInvalid):
			if derr := d.tokens.Deactivate(ctx, token); derr != nil {
				log.Printf("⚠️ Failed to deactivate push token for user %d: %v", userID, derr)
			}
		default:
			log.Printf("⚠️ Push to user %d failed: %v", userID, err)
		}
	}
}

// Wait blocks until background push deliveries have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
