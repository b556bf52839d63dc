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

package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/giftakari/cargobuddy-frontend/pkg/tools/safejson"
)

// EventType is the discriminant of a realtime event.
type EventType string

const (
	EventTypeNotification            EventType = "notification"
	EventTypeInvitationReceived      EventType = "invitation_received"
	EventTypeInvitationStatusUpdated EventType = "invitation_status_updated"
	EventTypeNewMessage              EventType = "newMessage"
	EventTypeDeliveryCompleted       EventType = "delivery_completed"
	EventTypeBidAccepted             EventType = "bid_accepted"
	EventTypeBidRejected             EventType = "bid_rejected"
	EventTypeNewBid                  EventType = "new_bid"
	EventTypeMatchingTripFound       EventType = "matching_trip_found"
	EventTypeMatchingDeliveryFound   EventType = "matching_delivery_found"
)

// ErrUnknownEventType is returned by DecodeEvent for discriminants outside
// the closed union above.
var ErrUnknownEventType = errors.New("unknown event type")

// Event is one decoded realtime message. Payload holds a pointer to the
// payload struct matching Type.
type Event struct {
	Type    EventType
	Payload any
}

// GenericNotificationEvent is the catch-all "notification" message. The
// server fully dictates title, message and action URL; the client only
// maps Type to cache tags.
type GenericNotificationEvent struct {
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      NotificationData `json:"data,omitempty"`
	ActionURL string           `json:"actionUrl,omitempty"`
}

// DeliverySummary is the partial delivery some events embed.
type DeliverySummary struct {
	Description string `json:"description"`
}

// InvitationReceivedEvent tells a driver they were invited to bid.
type InvitationReceivedEvent struct {
	DeliveryID   int              `json:"deliveryId"`
	InvitationID int              `json:"invitationId"`
	Delivery     *DeliverySummary `json:"delivery,omitempty"`
}

// InvitationStatusUpdatedEvent reports an invitation status change.
type InvitationStatusUpdatedEvent struct {
	InvitationID int              `json:"invitationId"`
	DeliveryID   int              `json:"deliveryId"`
	Status       InvitationStatus `json:"status"`
}

// NewMessageEvent carries a chat message for one of the user's deliveries.
type NewMessageEvent struct {
	Delivery int    `json:"delivery"`
	Message  string `json:"message"`
	Sender   User   `json:"sender"`
}

// DeliveryCompletedEvent reports a delivery reaching its destination.
type DeliveryCompletedEvent struct {
	DeliveryID int `json:"deliveryId"`
}

// BidAcceptedEvent tells a driver their bid was accepted.
type BidAcceptedEvent struct {
	DeliveryID int `json:"deliveryId"`
	BidID      int `json:"bidId"`
}

// BidRejectedEvent tells a driver their bid was rejected.
type BidRejectedEvent struct {
	DeliveryID int `json:"deliveryId"`
	BidID      int `json:"bidId"`
}

// NewBidEvent tells a sender a new bid arrived on their delivery.
type NewBidEvent struct {
	DeliveryID int     `json:"deliveryId"`
	BidID      int     `json:"bidId"`
	BidderID   int     `json:"bidderId"`
	Amount     float64 `json:"amount"`
}

// MatchingTripFoundEvent tells a sender a driver travels their route.
type MatchingTripFoundEvent struct {
	DeliveryID int `json:"deliveryId"`
	TripID     int `json:"tripId"`
}

// MatchingDeliveryFoundEvent tells a driver a delivery lies on their route.
type MatchingDeliveryFoundEvent struct {
	TripID     int `json:"tripId"`
	DeliveryID int `json:"deliveryId"`
}

// eventEnvelope is the wire framing of a realtime message.
type eventEnvelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// DecodeEvent parses a raw realtime message into the typed event union.
// Unknown discriminants return ErrUnknownEventType; the caller skips the
// message and keeps the read loop alive.
func DecodeEvent(raw []byte) (Event, error) {
	var env eventEnvelope
	if err := safejson.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("failed to decode event envelope: %w", err)
	}

	var payload any
	switch env.Event {
	case EventTypeNotification:
		payload = &GenericNotificationEvent{}
	case EventTypeInvitationReceived:
		payload = &InvitationReceivedEvent{}
	case EventTypeInvitationStatusUpdated:
		payload = &InvitationStatusUpdatedEvent{}
	case EventTypeNewMessage:
		payload = &NewMessageEvent{}
	case EventTypeDeliveryCompleted:
		payload = &DeliveryCompletedEvent{}
	case EventTypeBidAccepted:
		payload = &BidAcceptedEvent{}
	case EventTypeBidRejected:
		payload = &BidRejectedEvent{}
	case EventTypeNewBid:
		payload = &NewBidEvent{}
	case EventTypeMatchingTripFound:
		payload = &MatchingTripFoundEvent{}
	case EventTypeMatchingDeliveryFound:
		payload = &MatchingDeliveryFoundEvent{}
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Event)
	}

	if len(env.Data) > 0 {
		if err := safejson.Unmarshal(env.Data, payload); err != nil {
			return Event{}, fmt.Errorf("failed to decode %s payload: %w", env.Event, err)
		}
	}

	return Event{Type: env.Event, Payload: payload}, nil
}
