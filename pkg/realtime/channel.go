// Copyright 2025 The CargoBuddy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package realtime maintains the websocket event channel to the backend.
//
// The channel lives in one of three states (disconnected, connecting,
// connected). Connection errors schedule a reconnect after 2^attempt
// seconds, capped at five consecutive attempts; past the cap the channel
// reports itself offline until the next explicit Connect. A
// server-initiated kick reconnects immediately and does not count
// against the cap. Decoded events are delivered on a bounded channel in
// strict arrival order.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/giftakari/cargobuddy-frontend/pkg/metrics"
	"github.com/giftakari/cargobuddy-frontend/pkg/models"
	"github.com/giftakari/cargobuddy-frontend/pkg/tools"
	"github.com/giftakari/cargobuddy-frontend/pkg/watchdog"
)

const (
	stateDisconnected = "disconnected"
	stateConnecting   = "connecting"
	stateConnected    = "connected"

	eventConnect    = "connect"
	eventConnected  = "connected"
	eventDisconnect = "disconnect"
)

// ErrNotAuthenticated is returned by Connect without a logged-in session.
var ErrNotAuthenticated = errors.New("realtime channel requires an authenticated session")

// ErrAlreadyConnected is returned by Connect while connected or connecting.
var ErrAlreadyConnected = errors.New("realtime channel is already connected")

// Conn is one live websocket connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens websocket connections. The default implementation wraps
// gorilla/websocket; tests substitute a fake.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

type websocketDialer struct {
	handshakeTimeout time.Duration
}

func (d *websocketDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, nil
}

// NewWebsocketDialer returns the production Dialer.
func NewWebsocketDialer(handshakeTimeout time.Duration) Dialer {
	return &websocketDialer{handshakeTimeout: handshakeTimeout}
}

// Options configures a Channel.
type Options struct {
	URL                  string
	MaxReconnectAttempts uint64
	EventBufferSize      int
	Dialer               Dialer
	// Authenticated gates Connect; nil means no gating.
	Authenticated func() bool
	// Header supplies the handshake header, typically session cookies.
	Header func() http.Header
	// Backoff paces reconnect attempts; nil means 2s doubling up to 32s.
	Backoff *tools.Backoff
	Dog     watchdog.Iface
	Logger  *zap.SugaredLogger
}

// Channel is the realtime event channel.
type Channel struct {
	opts    Options
	machine *fsm.FSM
	events  chan models.Event
	backoff *tools.Backoff

	mu                sync.Mutex
	conn              Conn
	readCancel        context.CancelFunc
	retryTimer        *time.Timer
	reconnectAttempts uint64
	closed            bool
	generation        uint64

	offline atomic.Bool
}

// NewChannel creates a Channel in the disconnected state.
func NewChannel(opts Options) *Channel {
	if opts.Dialer == nil {
		opts.Dialer = NewWebsocketDialer(10 * time.Second)
	}
	if opts.MaxReconnectAttempts == 0 {
		opts.MaxReconnectAttempts = 5
	}
	if opts.EventBufferSize <= 0 {
		opts.EventBufferSize = 100
	}

	if opts.Backoff == nil {
		// 1s doubled per attempt gives 2s, 4s, 8s, 16s, 32s.
		opts.Backoff = tools.NewBackoff(1*time.Second, 2, 32*time.Second, tools.BackoffPolicyExponential)
	}

	c := &Channel{
		opts:    opts,
		events:  make(chan models.Event, opts.EventBufferSize),
		backoff: opts.Backoff,
	}

	c.machine = fsm.NewFSM(
		stateDisconnected,
		fsm.Events{
			{Name: eventConnect, Src: []string{stateDisconnected}, Dst: stateConnecting},
			{Name: eventConnected, Src: []string{stateConnecting}, Dst: stateConnected},
			{Name: eventDisconnect, Src: []string{stateConnecting, stateConnected}, Dst: stateDisconnected},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				opts.Logger.Debugf("realtime channel: %s -> %s", e.Src, e.Dst)
			},
		},
	)

	return c
}

// Events is the ordered stream of decoded realtime events.
func (c *Channel) Events() <-chan models.Event {
	return c.events
}

// Connected reports whether a live connection exists.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Current() == stateConnected
}

// Offline reports whether the reconnect budget is exhausted. The UI shows
// its offline indicator while this is true.
func (c *Channel) Offline() bool {
	return c.offline.Load()
}

// Connect establishes the websocket connection. It requires an
// authenticated session and resets the reconnect budget.
func (c *Channel) Connect(ctx context.Context) error {
	if c.opts.Authenticated != nil && !c.opts.Authenticated() {
		return ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.machine.Current() != stateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.closed = false
	c.reconnectAttempts = 0
	c.backoff.Reset()
	c.offline.Store(false)
	if err := c.machine.Event(ctx, eventConnect); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	return c.dial(ctx)
}

// dial attempts the websocket handshake from the connecting state.
func (c *Channel) dial(ctx context.Context) error {
	var header http.Header
	if c.opts.Header != nil {
		header = c.opts.Header()
	}

	conn, err := c.opts.Dialer.Dial(ctx, c.opts.URL, header)
	if err != nil {
		c.opts.Logger.Warnf("realtime dial failed: %v", err)
		metrics.IncErrorCount(metrics.ComponentRealtime)
		c.handleFailure(err)
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	if err := c.machine.Event(context.Background(), eventConnected); err != nil {
		c.mu.Unlock()
		_ = conn.Close()
		return err
	}
	c.conn = conn
	c.reconnectAttempts = 0
	c.backoff.Reset()
	c.offline.Store(false)
	c.generation++
	generation := c.generation

	readCtx, cancel := context.WithCancel(context.Background())
	c.readCancel = cancel
	c.mu.Unlock()

	metrics.SetChannelOnline(true)
	if c.opts.Dog != nil {
		c.opts.Dog.SetOnline(true)
	}
	c.opts.Logger.Infof("realtime channel connected to %s", c.opts.URL)

	go c.readLoop(readCtx, conn, generation)
	return nil
}

// readLoop pumps messages from one connection until it dies.
func (c *Channel) readLoop(ctx context.Context, conn Conn, generation uint64) {
	var hbID uuid.UUID
	if c.opts.Dog != nil {
		hbID = c.opts.Dog.RegisterHeartbeat(fmt.Sprintf("realtime-read-%d", generation), 0, 90, true)
		defer c.opts.Dog.UnregisterHeartbeat(hbID)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				// Explicit disconnect already tore the state down.
				return
			default:
			}
			c.handleConnectionLost(err, generation)
			return
		}

		if c.opts.Dog != nil {
			c.opts.Dog.ReportHeartbeatStatus(hbID, watchdog.HEARTBEAT_STATUS_OK)
		}

		event, err := models.DecodeEvent(raw)
		if err != nil {
			if errors.Is(err, models.ErrUnknownEventType) {
				c.opts.Logger.Infof("skipping realtime event: %v", err)
				metrics.ObserveEvent("unknown", "unknown")
			} else {
				c.opts.Logger.Warnf("failed to decode realtime event: %v", err)
				metrics.IncErrorCount(metrics.ComponentRealtime)
			}
			continue
		}

		select {
		case c.events <- event:
		default:
			// Bounded buffer: dropping keeps arrival order for the
			// events that do get through and never blocks the read.
			c.opts.Logger.Warnf("event buffer full, dropping %s event", event.Type)
			metrics.ObserveEvent(string(event.Type), "dropped")
		}
	}
}

// handleConnectionLost reacts to a dead connection discovered by the
// read loop.
func (c *Channel) handleConnectionLost(err error, generation uint64) {
	c.mu.Lock()
	if c.closed || generation != c.generation {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	_ = c.machine.Event(context.Background(), eventDisconnect)
	c.mu.Unlock()

	metrics.SetChannelOnline(false)
	if c.opts.Dog != nil {
		c.opts.Dog.SetOnline(false)
	}

	if isServerKick(err) {
		// The server asked us to go away and come back; retry at once
		// without touching the budget.
		c.opts.Logger.Infof("server closed the connection, reconnecting immediately")
		c.mu.Lock()
		if err := c.machine.Event(context.Background(), eventConnect); err != nil {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		_ = c.dial(context.Background())
		return
	}

	c.opts.Logger.Warnf("realtime connection lost: %v", err)
	c.handleFailure(err)
}

// handleFailure schedules the next reconnect attempt, or gives up once
// the budget is spent.
func (c *Channel) handleFailure(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.machine.Current() == stateConnecting {
		_ = c.machine.Event(context.Background(), eventDisconnect)
	}

	c.reconnectAttempts++
	if c.reconnectAttempts > c.opts.MaxReconnectAttempts {
		c.offline.Store(true)
		c.opts.Logger.Errorf("giving up after %d reconnect attempts: %v", c.opts.MaxReconnectAttempts, cause)
		return
	}

	delay := c.backoff.Next()
	attempt := c.reconnectAttempts
	c.opts.Logger.Infof("scheduling reconnect attempt %d/%d in %s", attempt, c.opts.MaxReconnectAttempts, delay)
	metrics.IncReconnectAttempts()

	c.retryTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if c.closed || c.machine.Current() != stateDisconnected {
			c.mu.Unlock()
			return
		}
		if err := c.machine.Event(context.Background(), eventConnect); err != nil {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		_ = c.dial(context.Background())
	})
}

// Disconnect tears the channel down: no reconnect, timers cancelled.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.closed = true
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if c.readCancel != nil {
		c.readCancel()
		c.readCancel = nil
	}
	conn := c.conn
	c.conn = nil
	if c.machine.Current() != stateDisconnected {
		_ = c.machine.Event(context.Background(), eventDisconnect)
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	metrics.SetChannelOnline(false)
	if c.opts.Dog != nil {
		c.opts.Dog.SetOnline(false)
	}
	c.opts.Logger.Info("realtime channel disconnected")
}

// isServerKick reports whether the server deliberately closed the
// connection, as opposed to the network failing underneath it.
func isServerKick(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseServiceRestart,
	)
}
