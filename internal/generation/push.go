package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
)

// NewChannelID mints an identifier for the out-of-band push channel.
func NewChannelID() string {
	return "push-" + uuid.NewString()
}

// Watch subscribes to the push channel and forwards statuses for requestID
// through the tracker's transition gate. It is purely a latency
// optimization: delivery is never assumed, dropped frames are fine, and the
// caller's polling loop stays authoritative. The returned channel closes
// when a terminal state arrives, the socket fails, or ctx ends.
func (t *Tracker) Watch(ctx context.Context, channelID, requestID string) (<-chan domain.GenerationStatus, error) {
	wsURL, err := pushURL(t.client.BaseURL(), channelID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial push channel: %w", err)
	}

	out := make(chan domain.GenerationStatus)
	go func() {
		defer close(out)
		defer conn.Close()

		// Unblock ReadMessage when the caller abandons the watch.
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		defer stop()

		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					t.logger.Debug("push channel closed", slog.String("error", err.Error()))
				}
				return
			}

			var status domain.GenerationStatus
			if err := json.Unmarshal(frame, &status); err != nil {
				t.logger.Debug("discarding malformed push frame", slog.String("error", err.Error()))
				continue
			}
			if status.RequestID != requestID {
				continue
			}

			status.Status = t.Observe(&status)
			select {
			case out <- status:
			case <-ctx.Done():
				return
			}

			if status.Status.Terminal() {
				return
			}
		}
	}()

	return out, nil
}

// pushURL derives the websocket endpoint for a channel from the service
// base address.
func pushURL(baseURL, channelID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/generation/" + url.PathEscape(channelID)
	return u.String(), nil
}
