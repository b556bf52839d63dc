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

package notifications_test

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/giftakari/cargobuddy-frontend/pkg/logger"
	"github.com/giftakari/cargobuddy-frontend/pkg/models"
	"github.com/giftakari/cargobuddy-frontend/pkg/notifications"
)

// recordingNotifier captures mirrored notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	notified []models.Notification
	fail     bool
}

func (r *recordingNotifier) Notify(n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("platform said no")
	}
	r.notified = append(r.notified, n)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notified)
}

func newNotification(id string, t models.NotificationType) models.Notification {
	return models.Notification{
		ID:        id,
		Type:      t,
		Title:     "Title " + id,
		Message:   "Message " + id,
		CreatedAt: time.Now(),
	}
}

var _ = Describe("Center", func() {

	var center *notifications.Center
	var notifier *recordingNotifier

	BeforeEach(func() {
		notifier = &recordingNotifier{}
		center = notifications.NewCenter(time.Hour, notifier, logger.For("CenterTest"))
	})

	Context("Enqueue", func() {
		It("keeps at most one notification displayed", func() {
			center.Enqueue(newNotification("a", models.NotificationTypeBid))
			center.Enqueue(newNotification("b", models.NotificationTypeMatch))
			center.Enqueue(newNotification("c", models.NotificationTypeMessage))

			displayed, ok := center.Displayed()
			Expect(ok).To(BeTrue())
			Expect(displayed.ID).To(Equal("a"))
			Expect(center.UnreadCount()).To(Equal(3))
			Expect(notifier.count()).To(Equal(3))
		})

		It("stores newest first", func() {
			center.Enqueue(newNotification("a", models.NotificationTypeBid))
			center.Enqueue(newNotification("b", models.NotificationTypeBid))

			list := center.Notifications()
			Expect(list).To(HaveLen(2))
			Expect(list[0].ID).To(Equal("b"))
			Expect(list[1].ID).To(Equal("a"))
		})

		It("survives a failing platform notifier", func() {
			notifier.fail = true
			center.Enqueue(newNotification("a", models.NotificationTypeBid))
			Expect(center.UnreadCount()).To(Equal(1))
			_, ok := center.Displayed()
			Expect(ok).To(BeTrue())
		})
	})

	Context("DismissDisplayed", func() {
		It("marks the dismissed notification read and promotes the oldest unread", func() {
			center.Enqueue(newNotification("a", models.NotificationTypeBid))
			center.Enqueue(newNotification("b", models.NotificationTypeBid))
			center.Enqueue(newNotification("c", models.NotificationTypeBid))

			center.DismissDisplayed()

			displayed, ok := center.Displayed()
			Expect(ok).To(BeTrue())
			// "a" was displayed and dismissed; "b" is now the oldest unread.
			Expect(displayed.ID).To(Equal("b"))
			Expect(center.UnreadCount()).To(Equal(2))
		})

		It("empties the slot when nothing is unread", func() {
			center.Enqueue(newNotification("a", models.NotificationTypeBid))
			center.DismissDisplayed()

			_, ok := center.Displayed()
			Expect(ok).To(BeFalse())
			Expect(center.UnreadCount()).To(BeZero())
		})
	})

	Context("ClickDisplayed", func() {
		It("returns the delivery target over trip and action URL", func() {
			n := newNotification("a", models.NotificationTypeBid)
			n.Data = models.NotificationData{DeliveryID: 12, TripID: 7}
			n.ActionURL = "/somewhere"
			center.Enqueue(n)

			target, ok := center.ClickDisplayed()
			Expect(ok).To(BeTrue())
			Expect(target).To(Equal("/deliveries/12"))
		})

		It("falls back to the trip target and then the action URL", func() {
			n := newNotification("a", models.NotificationTypeTripUpdate)
			n.Data = models.NotificationData{TripID: 7}
			center.Enqueue(n)
			target, ok := center.ClickDisplayed()
			Expect(ok).To(BeTrue())
			Expect(target).To(Equal("/trips/7"))

			m := newNotification("b", models.NotificationTypeMatch)
			m.ActionURL = "/matches"
			center.Enqueue(m)
			target, ok = center.ClickDisplayed()
			Expect(ok).To(BeTrue())
			Expect(target).To(Equal("/matches"))
		})
	})

	Context("auto-expiry", func() {
		It("dismisses the displayed notification and promotes the next", func() {
			center = notifications.NewCenter(30*time.Millisecond, nil, logger.For("CenterTest"))
			center.Enqueue(newNotification("a", models.NotificationTypeBid))
			center.Enqueue(newNotification("b", models.NotificationTypeBid))

			Eventually(func() string {
				displayed, ok := center.Displayed()
				if !ok {
					return ""
				}
				return displayed.ID
			}).Should(Equal("b"))
			Expect(center.UnreadCount()).To(Equal(1))

			Eventually(func() bool {
				_, ok := center.Displayed()
				return ok
			}).Should(BeFalse())
			Expect(center.UnreadCount()).To(BeZero())
		})
	})

	Context("MarkAllRead", func() {
		It("clears the unread count and the display slot", func() {
			for i := 0; i < 5; i++ {
				center.Enqueue(newNotification(fmt.Sprintf("n%d", i), models.NotificationTypeBid))
			}
			center.MarkAllRead()

			Expect(center.UnreadCount()).To(BeZero())
			_, ok := center.Displayed()
			Expect(ok).To(BeFalse())
			for _, n := range center.Notifications() {
				Expect(n.Read).To(BeTrue())
			}
		})
	})

	Context("unread counter", func() {
		It("always matches a recount of the list", func() {
			rng := rand.New(rand.NewSource(GinkgoRandomSeed()))
			for i := 0; i < 200; i++ {
				switch rng.Intn(5) {
				case 0, 1:
					center.Enqueue(newNotification(fmt.Sprintf("r%d", i), models.NotificationTypeBid))
				case 2:
					center.DismissDisplayed()
				case 3:
					center.RemoveDisplayed()
				case 4:
					list := center.Notifications()
					if len(list) > 0 {
						center.MarkRead(list[rng.Intn(len(list))].ID)
					}
				}

				recount := 0
				for _, n := range center.Notifications() {
					if !n.Read {
						recount++
					}
				}
				Expect(center.UnreadCount()).To(Equal(recount))
			}
		})
	})

	Context("Clear", func() {
		It("drops the list, the counter and the slot", func() {
			center.Enqueue(newNotification("a", models.NotificationTypeBid))
			center.Clear()

			Expect(center.Notifications()).To(BeEmpty())
			Expect(center.UnreadCount()).To(BeZero())
			_, ok := center.Displayed()
			Expect(ok).To(BeFalse())
		})
	})
})
