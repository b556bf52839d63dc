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

package realtime_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/giftakari/cargobuddy-frontend/pkg/logger"
	"github.com/giftakari/cargobuddy-frontend/pkg/models"
	"github.com/giftakari/cargobuddy-frontend/pkg/realtime"
	"github.com/giftakari/cargobuddy-frontend/pkg/tools"
)

// fakeConn feeds scripted messages to the read loop and then blocks
// until it is failed or closed.
type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	failWith error
	failed   chan struct{}
	closed   bool
}

func newFakeConn(messages ...[]byte) *fakeConn {
	return &fakeConn{messages: messages, failed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	if len(c.messages) > 0 {
		msg := c.messages[0]
		c.messages = c.messages[1:]
		c.mu.Unlock()
		return websocket.TextMessage, msg, nil
	}
	c.mu.Unlock()

	<-c.failed
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return 0, nil, c.failWith
	}
	return 0, nil, errors.New("use of closed connection")
}

// fail unblocks ReadMessage with the given error once the scripted
// messages are drained.
func (c *fakeConn) fail(err error) {
	c.mu.Lock()
	c.failWith = err
	c.mu.Unlock()
	close(c.failed)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		select {
		case <-c.failed:
		default:
			close(c.failed)
		}
	}
	return nil
}

// fakeDialer hands out scripted connections, or errors when it runs out.
type fakeDialer struct {
	mu      sync.Mutex
	conns   []*fakeConn
	dials   int
	headers []http.Header
}

func (d *fakeDialer) Dial(ctx context.Context, url string, header http.Header) (realtime.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	d.headers = append(d.headers, header)
	if len(d.conns) == 0 {
		return nil, errors.New("connection refused")
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func envelope(event string, data string) []byte {
	return []byte(`{"event":"` + event + `","data":` + data + `}`)
}

// testBackoff keeps reconnect pacing in the low milliseconds.
func testBackoff() *tools.Backoff {
	return tools.NewBackoff(time.Millisecond, 2, 32*time.Millisecond, tools.BackoffPolicyExponential)
}

var _ = Describe("Channel", func() {

	newChannel := func(dialer realtime.Dialer, authenticated func() bool) *realtime.Channel {
		return realtime.NewChannel(realtime.Options{
			URL:                  "ws://cargobuddy.test/socket",
			MaxReconnectAttempts: 5,
			EventBufferSize:      8,
			Dialer:               dialer,
			Authenticated:        authenticated,
			Backoff:              testBackoff(),
			Logger:               logger.For("ChannelTest"),
		})
	}

	Context("Connect", func() {
		It("refuses to connect without an authenticated session", func() {
			channel := newChannel(&fakeDialer{}, func() bool { return false })
			Expect(channel.Connect(context.Background())).To(MatchError(realtime.ErrNotAuthenticated))
		})

		It("delivers decoded events in arrival order", func() {
			conn := newFakeConn(
				envelope("new_bid", `{"deliveryId":1,"bidId":10,"amount":50}`),
				envelope("bid_accepted", `{"deliveryId":1,"bidId":10}`),
			)
			dialer := &fakeDialer{conns: []*fakeConn{conn}}
			channel := newChannel(dialer, nil)

			Expect(channel.Connect(context.Background())).To(Succeed())
			defer channel.Disconnect()

			var first, second models.Event
			Eventually(channel.Events()).Should(Receive(&first))
			Eventually(channel.Events()).Should(Receive(&second))

			Expect(first.Type).To(Equal(models.EventTypeNewBid))
			Expect(first.Payload.(*models.NewBidEvent).Amount).To(Equal(50.0))
			Expect(second.Type).To(Equal(models.EventTypeBidAccepted))
		})

		It("skips unknown event types and keeps reading", func() {
			conn := newFakeConn(
				envelope("some_future_thing", `{}`),
				envelope("delivery_completed", `{"deliveryId":3}`),
			)
			dialer := &fakeDialer{conns: []*fakeConn{conn}}
			channel := newChannel(dialer, nil)

			Expect(channel.Connect(context.Background())).To(Succeed())
			defer channel.Disconnect()

			var event models.Event
			Eventually(channel.Events()).Should(Receive(&event))
			Expect(event.Type).To(Equal(models.EventTypeDeliveryCompleted))
		})

		It("sends the session header on the handshake", func() {
			conn := newFakeConn()
			dialer := &fakeDialer{conns: []*fakeConn{conn}}
			channel := realtime.NewChannel(realtime.Options{
				URL:     "ws://cargobuddy.test/socket",
				Dialer:  dialer,
				Backoff: testBackoff(),
				Header: func() http.Header {
					h := http.Header{}
					h.Set("Cookie", "cargobuddy.sid=abc")
					return h
				},
				Logger: logger.For("ChannelTest"),
			})

			Expect(channel.Connect(context.Background())).To(Succeed())
			defer channel.Disconnect()

			Expect(dialer.headers).To(HaveLen(1))
			Expect(dialer.headers[0].Get("Cookie")).To(Equal("cargobuddy.sid=abc"))
		})
	})

	Context("reconnect budget", func() {
		It("gives up and reports offline after the attempts are spent", func() {
			dialer := &fakeDialer{} // every dial fails
			channel := newChannel(dialer, nil)

			err := channel.Connect(context.Background())
			Expect(err).To(HaveOccurred())

			// First dial plus five scheduled retries, then nothing more.
			Eventually(dialer.dialCount).Should(Equal(6))
			Eventually(channel.Offline).Should(BeTrue())
			Consistently(dialer.dialCount, "200ms").Should(Equal(6))
			Expect(channel.Connected()).To(BeFalse())
		})

		It("resets the budget on an explicit Connect", func() {
			dialer := &fakeDialer{}
			channel := newChannel(dialer, nil)

			_ = channel.Connect(context.Background())
			Eventually(channel.Offline).Should(BeTrue())

			conn := newFakeConn()
			dialer.mu.Lock()
			dialer.conns = []*fakeConn{conn}
			dialer.mu.Unlock()

			Expect(channel.Connect(context.Background())).To(Succeed())
			defer channel.Disconnect()
			Expect(channel.Offline()).To(BeFalse())
			Expect(channel.Connected()).To(BeTrue())
		})

		It("reconnects after a dropped connection", func() {
			first := newFakeConn()
			second := newFakeConn()
			dialer := &fakeDialer{conns: []*fakeConn{first, second}}
			channel := newChannel(dialer, nil)

			Expect(channel.Connect(context.Background())).To(Succeed())
			defer channel.Disconnect()

			first.fail(errors.New("read tcp: connection reset by peer"))

			Eventually(dialer.dialCount).Should(Equal(2))
			Eventually(channel.Connected).Should(BeTrue())
			Expect(channel.Offline()).To(BeFalse())
		})

		It("reconnects immediately on a server kick without spending budget", func() {
			first := newFakeConn()
			second := newFakeConn()
			dialer := &fakeDialer{conns: []*fakeConn{first, second}}
			channel := newChannel(dialer, nil)

			Expect(channel.Connect(context.Background())).To(Succeed())
			defer channel.Disconnect()

			first.fail(&websocket.CloseError{Code: websocket.CloseGoingAway, Text: "server restart"})

			Eventually(dialer.dialCount).Should(Equal(2))
			Eventually(channel.Connected).Should(BeTrue())
			Expect(channel.Offline()).To(BeFalse())
		})
	})

	Context("Disconnect", func() {
		It("closes the connection and schedules no reconnect", func() {
			conn := newFakeConn()
			dialer := &fakeDialer{conns: []*fakeConn{conn}}
			channel := newChannel(dialer, nil)

			Expect(channel.Connect(context.Background())).To(Succeed())
			channel.Disconnect()

			Expect(channel.Connected()).To(BeFalse())
			Consistently(dialer.dialCount, "100ms").Should(Equal(1))
		})
	})
})
