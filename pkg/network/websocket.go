package network

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/metahead-arena/headball/pkg/log"
	"github.com/metahead-arena/headball/pkg/messages"
	"nhooyr.io/websocket"
)

// wsConn abstracts the websocket connection for testing.
type wsConn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, b []byte) error
	Close() error
}

type websocketConn struct {
	conn *websocket.Conn
}

var _ wsConn = &websocketConn{}

func dial(ctx context.Context, serverURL string, token string) (wsConn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.Dial(ctx, serverURL, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %v", serverURL, err)
	}
	conn.SetReadLimit(messages.MessageBufferSize * 1024)

	return &websocketConn{conn: conn}, nil
}

func (c *websocketConn) Read(ctx context.Context) ([]byte, error) {
	_, b, err := c.conn.Read(ctx)
	return b, err
}

func (c *websocketConn) Write(ctx context.Context, b []byte) error {
	return c.conn.Write(ctx, websocket.MessageBinary, b)
}

func (c *websocketConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "client disconnect")
}

// readLoop reads inbound messages until the connection closes or the
// context is cancelled by Disconnect.
func (m *Manager) readLoop(ctx context.Context, conn wsConn, done chan struct{}, welcomeChan chan<- *messages.ServerWelcome) {
	defer close(done)

	for {
		b, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Trace("Read loop stopped by client")
				return
			}
			log.Error("Connection closed by server: %v", err)
			m.handleRemoteClose()
			return
		}

		if err := m.handleMessage(b, welcomeChan); err != nil {
			log.Error("Failed to handle message: %v", err)
		}
	}
}

// handleRemoteClose tears down local state after a server-side disconnect.
func (m *Manager) handleRemoteClose() {
	m.lock.Lock()
	m.conn = nil
	if m.cancelReadCtx != nil {
		m.cancelReadCtx()
		m.cancelReadCtx = nil
	}
	m.readDone = nil
	m.lock.Unlock()

	if err := m.messageQueue.ClearQueue(); err != nil {
		log.Error("Failed to clear message queue: %v", err)
	}
	m.resetState()
	m.bus.Publish(TopicDisconnected, nil)
}

// handleMessage decodes an inbound frame and routes it. Every message is
// published on the bus under its type; simulation state messages are
// additionally enqueued for the engine tick to drain.
func (m *Manager) handleMessage(b []byte, welcomeChan chan<- *messages.ServerWelcome) error {
	msg, err := messages.DeserializeMessage(b)
	if err != nil {
		return fmt.Errorf("failed to deserialize message: %v", err)
	}
	m.messagesReceived.Add(1)
	log.Trace("Received message of type %s", msg.Type)

	if msg.Type == messages.MessageTypeServerWelcome {
		welcome := &messages.ServerWelcome{}
		if err := messages.UnmarshalPayload(msg, welcome); err != nil {
			return err
		}
		select {
		case welcomeChan <- welcome:
		default:
			log.Warn("Dropping duplicate welcome message")
		}
		return nil
	}

	if isSimulationMessage(msg.Type) {
		m.recordLatency(msg)
		if err := m.messageQueue.Enqueue(msg); err != nil {
			return fmt.Errorf("failed to enqueue message: %v", err)
		}
	}

	m.bus.Publish(msg.Type, msg)

	return nil
}

// recordLatency tracks the age of timestamped peer state updates for the
// health snapshot.
func (m *Manager) recordLatency(msg *messages.Message) {
	timestamped := &struct {
		Timestamp int64 `json:"timestamp"`
	}{}
	if err := messages.UnmarshalPayload(msg, timestamped); err != nil || timestamped.Timestamp == 0 {
		return
	}
	m.lastLatencyMillis.Store(time.Now().UnixMilli() - timestamped.Timestamp)
}

// isSimulationMessage reports whether a message is drained by the engine
// tick rather than handled by the room state machine.
func isSimulationMessage(messageType string) bool {
	switch messageType {
	case messages.MessageTypeServerPlayerPosition,
		messages.MessageTypeServerBallState,
		messages.MessageTypeServerGoalScored,
		messages.MessageTypeServerPlayerLeft:
		return true
	}
	return false
}
