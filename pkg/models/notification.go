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
	"strconv"
	"time"
)

// NotificationType classifies an in-app notification.
type NotificationType string

const (
	NotificationTypeBid            NotificationType = "bid"
	NotificationTypeMatch          NotificationType = "match"
	NotificationTypeMessage        NotificationType = "message"
	NotificationTypeDeliveryUpdate NotificationType = "delivery_update"
	NotificationTypeTripUpdate     NotificationType = "trip_update"
	NotificationTypeInvitation     NotificationType = "invitation"
	NotificationTypeBidAccepted    NotificationType = "bid_accepted"
	NotificationTypeBidRejected    NotificationType = "bid_rejected"
)

// NotificationData carries the sparse cross-references a notification
// points at. A zero id means the field is absent.
type NotificationData struct {
	DeliveryID   int `json:"deliveryId,omitempty"`
	TripID       int `json:"tripId,omitempty"`
	BidID        int `json:"bidId,omitempty"`
	InvitationID int `json:"invitationId,omitempty"`
	UserID       int `json:"userId,omitempty"`
	BidderID     int `json:"bidderId,omitempty"`
}

// Notification is an in-app notification shown to the user.
type Notification struct {
	// ID is generation ordered: a nanosecond timestamp prefix followed
	// by a uuid suffix, so lexicographic comparison of ids from the same
	// client follows creation order.
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      NotificationData `json:"data,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
	// ActionURL is where the client navigates when the notification is
	// clicked and no cross-reference takes priority.
	ActionURL string `json:"actionUrl,omitempty"`
}

// NavigationTarget returns where a click on the notification should lead.
// A delivery reference wins over a trip reference, which wins over the
// raw action URL. Empty means the click has no navigation.
func (n Notification) NavigationTarget() string {
	if n.Data.DeliveryID != 0 {
		return "/deliveries/" + strconv.Itoa(n.Data.DeliveryID)
	}
	if n.Data.TripID != 0 {
		return "/trips/" + strconv.Itoa(n.Data.TripID)
	}
	return n.ActionURL
}
