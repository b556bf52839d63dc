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

package apiclient

import (
	"fmt"
	"net/url"
	"strconv"
)

// Endpoint is a path below the API base URL.
type Endpoint string

const (
	LoginEndpoint           Endpoint = "/api/auth/login"
	RegisterEndpoint        Endpoint = "/api/auth/register"
	LogoutEndpoint          Endpoint = "/api/auth/logout"
	CheckAuthEndpoint       Endpoint = "/api/auth/check"
	ProfileEndpoint         Endpoint = "/api/users/profile"
	RateUserEndpoint        Endpoint = "/api/users/rate"
	DeliveriesEndpoint      Endpoint = "/api/deliveries"
	TripsEndpoint           Endpoint = "/api/trips"
	BidsEndpoint            Endpoint = "/api/bids"
	ChatEndpoint            Endpoint = "/api/chat"
	SenderDashboardEndpoint Endpoint = "/api/dashboard/sender"
	DriverDashboardEndpoint Endpoint = "/api/dashboard/driver"
)

// DeliveryEndpoint addresses a single delivery.
func DeliveryEndpoint(id int) Endpoint {
	return Endpoint(fmt.Sprintf("%s/%d", DeliveriesEndpoint, id))
}

// DeliveryMatchingEndpoint lists trips matching a delivery's route.
func DeliveryMatchingEndpoint(id int) Endpoint {
	return Endpoint(fmt.Sprintf("%s/%d/matching", DeliveriesEndpoint, id))
}

// AcceptBidEndpoint accepts one bid on a delivery.
func AcceptBidEndpoint(deliveryID int, bidID int) Endpoint {
	return Endpoint(fmt.Sprintf("%s/%d/accept-bid/%d", DeliveriesEndpoint, deliveryID, bidID))
}

// MarkDeliveredEndpoint marks a delivery as completed.
func MarkDeliveredEndpoint(id int) Endpoint {
	return Endpoint(fmt.Sprintf("%s/%d/delivered", DeliveriesEndpoint, id))
}

// InviteDriverEndpoint invites a driver to bid on a delivery.
func InviteDriverEndpoint(deliveryID int, driverID int) Endpoint {
	return Endpoint(fmt.Sprintf("%s/%d/invite-driver/%d", DeliveriesEndpoint, deliveryID, driverID))
}

// DeliveryInvitationsEndpoint lists a delivery's invitations.
func DeliveryInvitationsEndpoint(deliveryID int) Endpoint {
	return Endpoint(fmt.Sprintf("%s/%d/invitations", DeliveriesEndpoint, deliveryID))
}

// InvitationStatusEndpoint updates an invitation's status.
func InvitationStatusEndpoint(invitationID int) Endpoint {
	return Endpoint(fmt.Sprintf("/api/invitations/%d/status", invitationID))
}

// TripEndpoint addresses a single trip.
func TripEndpoint(id int) Endpoint {
	return Endpoint(fmt.Sprintf("%s/%d", TripsEndpoint, id))
}

// TripMatchingEndpoint lists deliveries matching a trip's route.
func TripMatchingEndpoint(id int) Endpoint {
	return Endpoint(fmt.Sprintf("%s/%d/matching", TripsEndpoint, id))
}

// BidsFilterEndpoint lists bids filtered by delivery and/or bidder.
// Zero means the filter is not applied.
func BidsFilterEndpoint(deliveryID int, bidderID int) Endpoint {
	params := url.Values{}
	if deliveryID != 0 {
		params.Set("delivery", strconv.Itoa(deliveryID))
	}
	if bidderID != 0 {
		params.Set("bidder", strconv.Itoa(bidderID))
	}
	if len(params) == 0 {
		return BidsEndpoint
	}
	return Endpoint(string(BidsEndpoint) + "?" + params.Encode())
}

// WithdrawBidEndpoint withdraws one of the user's bids.
func WithdrawBidEndpoint(id int) Endpoint {
	return Endpoint(fmt.Sprintf("%s/%d/withdraw", BidsEndpoint, id))
}

// ChatMessagesEndpoint lists the chat messages of a delivery.
func ChatMessagesEndpoint(deliveryID int) Endpoint {
	return Endpoint(fmt.Sprintf("%s/delivery/%d", ChatEndpoint, deliveryID))
}
