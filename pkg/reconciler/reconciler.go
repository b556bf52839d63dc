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

// Package reconciler turns realtime events into cache invalidations and
// notifications. Events are processed strictly in arrival order; later
// events may depend on cache state left by earlier ones.
package reconciler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/giftakari/cargobuddy-frontend/pkg/cache"
	"github.com/giftakari/cargobuddy-frontend/pkg/metrics"
	"github.com/giftakari/cargobuddy-frontend/pkg/models"
	"github.com/giftakari/cargobuddy-frontend/pkg/notifications"
	"github.com/giftakari/cargobuddy-frontend/pkg/watchdog"
)

// Reconciler drains one event stream into the cache and the
// notification center.
type Reconciler struct {
	events <-chan models.Event
	store  *cache.Store
	center *notifications.Center
	dog    watchdog.Iface
	logger *zap.SugaredLogger
}

// New creates a Reconciler over the given event stream.
func New(events <-chan models.Event, store *cache.Store, center *notifications.Center, dog watchdog.Iface, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		events: events,
		store:  store,
		center: center,
		dog:    dog,
		logger: logger,
	}
}

// Run drains the event stream until the context ends. It is the only
// consumer of the stream, which is what guarantees ordering.
func (r *Reconciler) Run(ctx context.Context) {
	var hbID uuid.UUID
	if r.dog != nil {
		hbID = r.dog.RegisterHeartbeat("reconciler", 0, 90, true)
		defer r.dog.UnregisterHeartbeat(hbID)
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.dog != nil {
				r.dog.ReportHeartbeatStatus(hbID, watchdog.HEARTBEAT_STATUS_OK)
			}
		case event, ok := <-r.events:
			if !ok {
				return
			}
			r.handle(event)
			if r.dog != nil {
				r.dog.ReportHeartbeatStatus(hbID, watchdog.HEARTBEAT_STATUS_OK)
			}
		}
	}
}

// newNotificationID builds a generation-ordered notification id.
func newNotificationID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + uuid.NewString()
}

func (r *Reconciler) handle(event models.Event) {
	switch payload := event.Payload.(type) {
	case *models.GenericNotificationEvent:
		r.handleGenericNotification(payload)
	case *models.InvitationReceivedEvent:
		r.handleInvitationReceived(payload)
	case *models.InvitationStatusUpdatedEvent:
		r.store.Invalidate(cache.KindTag(cache.KindDelivery))
	case *models.NewMessageEvent:
		r.handleNewMessage(payload)
	case *models.DeliveryCompletedEvent:
		r.handleDeliveryCompleted(payload)
	case *models.BidAcceptedEvent:
		r.handleBidAccepted(payload)
	case *models.BidRejectedEvent:
		r.handleBidRejected(payload)
	case *models.NewBidEvent:
		r.handleNewBid(payload)
	case *models.MatchingTripFoundEvent:
		r.handleMatchingTripFound(payload)
	case *models.MatchingDeliveryFoundEvent:
		r.handleMatchingDeliveryFound(payload)
	default:
		r.logger.Infof("ignoring event with unhandled payload type %T", event.Payload)
		metrics.ObserveEvent(string(event.Type), "unknown")
		return
	}
	metrics.ObserveEvent(string(event.Type), "handled")
}

// handleGenericNotification passes a server-authored notification
// through verbatim and maps its type to cache tags.
func (r *Reconciler) handleGenericNotification(p *models.GenericNotificationEvent) {
	r.center.Enqueue(models.Notification{
		ID:        newNotificationID(),
		Type:      p.Type,
		Title:     p.Title,
		Message:   p.Message,
		Data:      p.Data,
		Read:      false,
		CreatedAt: time.Now(),
		ActionURL: p.ActionURL,
	})

	switch p.Type {
	case models.NotificationTypeBid:
		r.store.Invalidate(cache.KindTag(cache.KindBid), cache.KindTag(cache.KindDelivery))
	case models.NotificationTypeDeliveryUpdate:
		r.store.Invalidate(cache.KindTag(cache.KindDelivery), cache.KindTag(cache.KindDashboard))
	case models.NotificationTypeTripUpdate:
		r.store.Invalidate(cache.KindTag(cache.KindTrip), cache.KindTag(cache.KindDashboard))
	case models.NotificationTypeMatch:
		// Matches carry no cache consequences.
	}
}

func (r *Reconciler) handleInvitationReceived(p *models.InvitationReceivedEvent) {
	description := "New delivery"
	if p.Delivery != nil && p.Delivery.Description != "" {
		description = p.Delivery.Description
	}

	r.center.Enqueue(models.Notification{
		ID:      newNotificationID(),
		Type:    models.NotificationTypeInvitation,
		Title:   "Delivery Invitation",
		Message: fmt.Sprintf("You've been invited to bid on a delivery: %s", description),
		Data: models.NotificationData{
			DeliveryID:   p.DeliveryID,
			InvitationID: p.InvitationID,
		},
		Read:      false,
		CreatedAt: time.Now(),
		ActionURL: fmt.Sprintf("/deliveries/%d", p.DeliveryID),
	})

	r.store.Invalidate(cache.KindTag(cache.KindDelivery), cache.KindTag(cache.KindTrip))
}

func (r *Reconciler) handleNewMessage(p *models.NewMessageEvent) {
	// Truncate by characters, not bytes, so a multi-byte rune at the
	// boundary is never split.
	preview := p.Message
	if runes := []rune(preview); len(runes) > 50 {
		preview = string(runes[:50])
	}

	r.center.Enqueue(models.Notification{
		ID:      newNotificationID(),
		Type:    models.NotificationTypeMessage,
		Title:   "New Message",
		Message: fmt.Sprintf("%s: %s...", p.Sender.FirstName, preview),
		Data: models.NotificationData{
			DeliveryID: p.Delivery,
			UserID:     p.Sender.ID,
		},
		Read:      false,
		CreatedAt: time.Now(),
		ActionURL: fmt.Sprintf("/chat/%d", p.Delivery),
	})

	r.store.Invalidate(cache.KindTag(cache.KindChat))
}

func (r *Reconciler) handleDeliveryCompleted(p *models.DeliveryCompletedEvent) {
	r.center.Enqueue(models.Notification{
		ID:      newNotificationID(),
		Type:    models.NotificationTypeDeliveryUpdate,
		Title:   "Delivery Completed",
		Message: fmt.Sprintf("Delivery #%d has been completed!", p.DeliveryID),
		Data: models.NotificationData{
			DeliveryID: p.DeliveryID,
		},
		Read:      false,
		CreatedAt: time.Now(),
		ActionURL: fmt.Sprintf("/deliveries/%d", p.DeliveryID),
	})

	r.store.Invalidate(cache.KindTag(cache.KindDelivery), cache.KindTag(cache.KindDashboard))
}

func (r *Reconciler) handleBidAccepted(p *models.BidAcceptedEvent) {
	r.center.Enqueue(models.Notification{
		ID:      newNotificationID(),
		Type:    models.NotificationTypeBidAccepted,
		Title:   "Bid Accepted",
		Message: fmt.Sprintf("Your bid for delivery #%d has been accepted!", p.DeliveryID),
		Data: models.NotificationData{
			DeliveryID: p.DeliveryID,
			BidID:      p.BidID,
		},
		Read:      false,
		CreatedAt: time.Now(),
		ActionURL: fmt.Sprintf("/deliveries/%d", p.DeliveryID),
	})

	r.store.Invalidate(cache.KindTag(cache.KindBid), cache.KindTag(cache.KindDelivery), cache.KindTag(cache.KindDashboard))
}

func (r *Reconciler) handleBidRejected(p *models.BidRejectedEvent) {
	r.center.Enqueue(models.Notification{
		ID:      newNotificationID(),
		Type:    models.NotificationTypeBidRejected,
		Title:   "Bid Not Accepted",
		Message: fmt.Sprintf("Your bid for delivery #%d was not accepted.", p.DeliveryID),
		Data: models.NotificationData{
			DeliveryID: p.DeliveryID,
			BidID:      p.BidID,
		},
		Read:      false,
		CreatedAt: time.Now(),
		ActionURL: fmt.Sprintf("/deliveries/%d", p.DeliveryID),
	})

	r.store.Invalidate(cache.KindTag(cache.KindBid))
}

func (r *Reconciler) handleNewBid(p *models.NewBidEvent) {
	r.center.Enqueue(models.Notification{
		ID:      newNotificationID(),
		Type:    models.NotificationTypeBid,
		Title:   "New Bid Received",
		Message: fmt.Sprintf("You received a new bid of $%s for your delivery", strconv.FormatFloat(p.Amount, 'f', -1, 64)),
		Data: models.NotificationData{
			DeliveryID: p.DeliveryID,
			BidID:      p.BidID,
			BidderID:   p.BidderID,
		},
		Read:      false,
		CreatedAt: time.Now(),
		ActionURL: fmt.Sprintf("/deliveries/%d", p.DeliveryID),
	})

	r.store.Invalidate(cache.KindTag(cache.KindBid))
}

func (r *Reconciler) handleMatchingTripFound(p *models.MatchingTripFoundEvent) {
	r.center.Enqueue(models.Notification{
		ID:      newNotificationID(),
		Type:    models.NotificationTypeMatch,
		Title:   "Matching Trip Found",
		Message: "We found a driver traveling your route!",
		Data: models.NotificationData{
			DeliveryID: p.DeliveryID,
			TripID:     p.TripID,
		},
		Read:      false,
		CreatedAt: time.Now(),
		ActionURL: fmt.Sprintf("/deliveries/%d", p.DeliveryID),
	})
}

func (r *Reconciler) handleMatchingDeliveryFound(p *models.MatchingDeliveryFoundEvent) {
	r.center.Enqueue(models.Notification{
		ID:      newNotificationID(),
		Type:    models.NotificationTypeMatch,
		Title:   "Matching Delivery Found",
		Message: "We found a delivery on your route!",
		Data: models.NotificationData{
			TripID:     p.TripID,
			DeliveryID: p.DeliveryID,
		},
		Read:      false,
		CreatedAt: time.Now(),
		ActionURL: fmt.Sprintf("/trips/%d", p.TripID),
	})
}
