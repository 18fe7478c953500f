package network

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/metahead-arena/headball/pkg/auth"
	"github.com/metahead-arena/headball/pkg/events"
	"github.com/metahead-arena/headball/pkg/log"
	"github.com/metahead-arena/headball/pkg/messages"
	"github.com/metahead-arena/headball/pkg/queue"
)

const (
	// ConnectTimeout bounds the wait for the server welcome after dialing.
	ConnectTimeout = 10 * time.Second
	// ReconnectDelay is the fixed delay between teardown and redial.
	ReconnectDelay = 2 * time.Second
	// WriteTimeout bounds a single outbound write.
	WriteTimeout = 5 * time.Second
)

// Bus topics for connection lifecycle events. Inbound server messages are
// additionally published under their own message type as the topic.
const (
	TopicConnected    = "connection.connected"
	TopicDisconnected = "connection.disconnected"
)

// Status is the connection lifecycle status.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	}
	return "unknown"
}

// Health is a read-only snapshot of the connection telemetry.
type Health struct {
	Status           string    `json:"status"`
	LocalID          string    `json:"localId"`
	ConnectedAt      time.Time `json:"connectedAt"`
	UptimeSeconds    float64   `json:"uptimeSeconds"`
	MessagesSent     uint64    `json:"messagesSent"`
	MessagesReceived uint64    `json:"messagesReceived"`
	// LastLatencyMillis is the age of the newest timestamped peer state
	// update. It includes clock skew between the peers, so treat it as a
	// debug signal rather than a measured RTT.
	LastLatencyMillis int64 `json:"lastLatencyMillis"`
}

// Manager owns the bidirectional event channel to the game server.
type Manager struct {
	serverURL     string
	tokenProvider auth.TokenProvider
	messageQueue  queue.Queue
	bus           *events.Bus

	lock          sync.Mutex
	status        Status
	localID       string
	connectedAt   time.Time
	conn          wsConn
	cancelReadCtx context.CancelFunc
	readDone      chan struct{}
	writeLock     sync.Mutex

	messagesSent      atomic.Uint64
	messagesReceived  atomic.Uint64
	lastLatencyMillis atomic.Int64
}

// NewManagerOptions contains options for creating a new Manager.
type NewManagerOptions struct {
	ServerURL     string
	TokenProvider auth.TokenProvider
	MessageQueue  queue.Queue
	EventBus      *events.Bus
}

// NewManager creates a new connection manager.
func NewManager(opts NewManagerOptions) *Manager {
	return &Manager{
		serverURL:     opts.ServerURL,
		tokenProvider: opts.TokenProvider,
		messageQueue:  opts.MessageQueue,
		bus:           opts.EventBus,
	}
}

// Connect opens the channel, attaches the credential, and resolves once the
// server welcome arrives. A concurrent call while an attempt is in flight is
// rejected with ErrConnectInProgress.
func (m *Manager) Connect(ctx context.Context) error {
	m.lock.Lock()
	switch m.status {
	case StatusConnecting:
		m.lock.Unlock()
		return &ErrConnectInProgress{}
	case StatusConnected:
		m.lock.Unlock()
		return fmt.Errorf("already connected")
	}
	m.status = StatusConnecting
	m.lock.Unlock()

	token, err := m.tokenProvider.Token(ctx)
	if err != nil {
		m.resetState()
		return fmt.Errorf("failed to get auth token: %v", err)
	}

	welcomeChan := make(chan *messages.ServerWelcome, 1)

	dialCtx, cancelDial := context.WithTimeout(ctx, ConnectTimeout)
	defer cancelDial()

	conn, err := dial(dialCtx, m.serverURL, token)
	if err != nil {
		m.resetState()
		return fmt.Errorf("failed to connect to server: %v", err)
	}

	readCtx, cancelRead := context.WithCancel(context.Background())
	readDone := make(chan struct{})
	m.lock.Lock()
	m.conn = conn
	m.cancelReadCtx = cancelRead
	m.readDone = readDone
	m.lock.Unlock()

	go m.readLoop(readCtx, conn, readDone, welcomeChan)

	select {
	case <-dialCtx.Done():
		m.Disconnect()
		return &ErrConnectTimeout{}
	case welcome := <-welcomeChan:
		m.lock.Lock()
		m.status = StatusConnected
		m.localID = welcome.PlayerID
		m.connectedAt = time.Now()
		m.lock.Unlock()
		log.Info("Connected to server as player %s", welcome.PlayerID)
		m.bus.Publish(TopicConnected, welcome)
	}

	return nil
}

// Disconnect tears down the connection. It is idempotent and always resets
// the connection state regardless of the prior status.
func (m *Manager) Disconnect() {
	m.lock.Lock()
	conn := m.conn
	cancel := m.cancelReadCtx
	readDone := m.readDone
	wasConnected := m.status == StatusConnected
	m.conn = nil
	m.cancelReadCtx = nil
	m.readDone = nil
	m.lock.Unlock()

	if conn == nil && cancel == nil {
		log.Debug("Connection manager already disconnected")
		m.resetState()
		return
	}

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Trace("Failed to close connection: %v", err)
		}
	}
	if readDone != nil {
		<-readDone
	}

	if err := m.messageQueue.ClearQueue(); err != nil {
		log.Error("Failed to clear message queue: %v", err)
	}

	m.resetState()

	if wasConnected {
		m.bus.Publish(TopicDisconnected, nil)
	}

	log.Info("Connection manager disconnected")
}

// ForceReconnect tears down the connection, waits a fixed delay, and
// reconnects. It never panics; all failures are returned to the caller.
func (m *Manager) ForceReconnect(ctx context.Context) error {
	log.Warn("Forcing reconnect")
	m.Disconnect()

	m.lock.Lock()
	m.status = StatusReconnecting
	m.lock.Unlock()

	select {
	case <-ctx.Done():
		m.resetState()
		return fmt.Errorf("reconnect cancelled: %v", ctx.Err())
	case <-time.After(ReconnectDelay):
	}

	m.resetState()
	if err := m.Connect(ctx); err != nil {
		return fmt.Errorf("failed to reconnect: %v", err)
	}
	return nil
}

// Send serializes and writes a message to the server.
func (m *Manager) Send(msg *messages.Message) error {
	m.lock.Lock()
	conn := m.conn
	m.lock.Unlock()
	if conn == nil {
		return &ErrNotConnected{}
	}

	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
	defer cancel()

	m.writeLock.Lock()
	defer m.writeLock.Unlock()
	if err := conn.Write(ctx, b); err != nil {
		return fmt.Errorf("failed to write message: %v", err)
	}
	m.messagesSent.Add(1)

	return nil
}

// IsConnected reports whether the handshake has completed.
func (m *Manager) IsConnected() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.status == StatusConnected
}

// LocalID returns the player ID assigned by the server welcome.
func (m *Manager) LocalID() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.localID
}

// Health returns a read-only snapshot of the connection telemetry.
// It has no side effects.
func (m *Manager) Health() Health {
	m.lock.Lock()
	defer m.lock.Unlock()

	uptime := 0.0
	if m.status == StatusConnected {
		uptime = time.Since(m.connectedAt).Seconds()
	}

	return Health{
		Status:            m.status.String(),
		LocalID:           m.localID,
		ConnectedAt:       m.connectedAt,
		UptimeSeconds:     uptime,
		MessagesSent:      m.messagesSent.Load(),
		MessagesReceived:  m.messagesReceived.Load(),
		LastLatencyMillis: m.lastLatencyMillis.Load(),
	}
}

// MessageQueue returns the inbound simulation message queue.
func (m *Manager) MessageQueue() queue.Queue {
	return m.messageQueue
}

func (m *Manager) resetState() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.status = StatusDisconnected
	m.localID = ""
	m.connectedAt = time.Time{}
}
