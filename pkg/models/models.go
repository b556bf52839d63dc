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

// Package models contains the domain types exchanged with the CargoBuddy
// backend. Field names and JSON tags follow the backend's wire format.
package models

// UserType describes the role a user signed up for.
type UserType string

const (
	UserTypeSender UserType = "sender"
	UserTypeDriver UserType = "driver"
	UserTypeBoth   UserType = "both"
)

// VehicleType is the vehicle a driver registered.
type VehicleType string

const (
	VehicleTypeCar        VehicleType = "car"
	VehicleTypeVan        VehicleType = "van"
	VehicleTypeTruck      VehicleType = "truck"
	VehicleTypeMotorcycle VehicleType = "motorcycle"
)

// ItemSize classifies a delivery's cargo.
type ItemSize string

const (
	ItemSizeSmall  ItemSize = "small"
	ItemSizeMedium ItemSize = "medium"
	ItemSizeLarge  ItemSize = "large"
)

// DeliveryStatus is the lifecycle state of a delivery.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusAssigned  DeliveryStatus = "assigned"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusCancelled DeliveryStatus = "cancelled"
)

// PaymentStatus is the payment state of a delivery.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// BidStatus is the lifecycle state of a bid.
type BidStatus string

const (
	BidStatusPending   BidStatus = "pending"
	BidStatusAccepted  BidStatus = "accepted"
	BidStatusRejected  BidStatus = "rejected"
	BidStatusWithdrawn BidStatus = "withdrawn"
)

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationStatusSent      InvitationStatus = "sent"
	InvitationStatusViewed    InvitationStatus = "viewed"
	InvitationStatusBidPlaced InvitationStatus = "bid_placed"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusRejected  InvitationStatus = "rejected"
)

// User is a CargoBuddy account.
type User struct {
	ID                 int         `json:"id"`
	Email              string      `json:"email"`
	FirstName          string      `json:"firstName"`
	LastName           string      `json:"lastName"`
	Phone              string      `json:"phone,omitempty"`
	UserType           UserType    `json:"userType"`
	VehicleType        VehicleType `json:"vehicleType,omitempty"`
	LicenseNumber      string      `json:"licenseNumber,omitempty"`
	SenderRating       float64     `json:"senderRating"`
	DriverRating       float64     `json:"driverRating"`
	TotalSenderRatings int         `json:"totalSenderRatings,omitempty"`
	TotalDriverRatings int         `json:"totalDriverRatings,omitempty"`
	IsActive           bool        `json:"isActive"`
	CreatedAt          string      `json:"createdAt,omitempty"`
	UpdatedAt          string      `json:"updatedAt,omitempty"`
}

// Permissions lists the actions the backend allows the current user.
type Permissions struct {
	CanCreateDeliveries bool `json:"canCreateDeliveries"`
	CanCreateTrips      bool `json:"canCreateTrips"`
	CanBid              bool `json:"canBid"`
	CanSendPackages     bool `json:"canSendPackages"`
}

// Coordinates is a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Delivery is a package a sender wants moved.
type Delivery struct {
	ID                    int            `json:"id"`
	Sender                User           `json:"sender"`
	AssignedDriver        *User          `json:"assignedDriver,omitempty"`
	PickupAddress         string         `json:"pickupAddress"`
	PickupSuburb          string         `json:"pickupSuburb"`
	PickupPostcode        string         `json:"pickupPostcode"`
	PickupLat             float64        `json:"pickupLat"`
	PickupLng             float64        `json:"pickupLng"`
	DropoffAddress        string         `json:"dropoffAddress"`
	DropoffSuburb         string         `json:"dropoffSuburb"`
	DropoffPostcode       string         `json:"dropoffPostcode"`
	DropoffLat            float64        `json:"dropoffLat"`
	DropoffLng            float64        `json:"dropoffLng"`
	ItemSize              ItemSize       `json:"itemSize"`
	Description           string         `json:"description"`
	Photos                []string       `json:"photos"`
	PreferredDeliveryDate string         `json:"preferredDeliveryDate,omitempty"`
	Budget                float64        `json:"budget"`
	FinalPrice            float64        `json:"finalPrice,omitempty"`
	Status                DeliveryStatus `json:"status"`
	PaymentStatus         PaymentStatus  `json:"paymentStatus"`
	CompletedAt           string         `json:"completedAt,omitempty"`
	CreatedAt             string         `json:"createdAt"`
	UpdatedAt             string         `json:"updatedAt"`
}

// Trip is a driver's planned route with spare capacity.
type Trip struct {
	ID                int           `json:"id"`
	Driver            User          `json:"driver"`
	FromAddress       string        `json:"fromAddress"`
	FromSuburb        string        `json:"fromSuburb"`
	FromPostcode      string        `json:"fromPostcode"`
	FromLat           float64       `json:"fromLat"`
	FromLng           float64       `json:"fromLng"`
	ToAddress         string        `json:"toAddress"`
	ToSuburb          string        `json:"toSuburb"`
	ToPostcode        string        `json:"toPostcode"`
	ToLat             float64       `json:"toLat"`
	ToLng             float64       `json:"toLng"`
	DepartureDateTime string        `json:"departureDateTime"`
	VehicleType       VehicleType   `json:"vehicleType"`
	AvailableSpace    ItemSize      `json:"availableSpace"`
	MaxDeliveries     int           `json:"maxDeliveries"`
	CurrentDeliveries int           `json:"currentDeliveries"`
	Status            TripStatus    `json:"status"`
	RoutePath         []Coordinates `json:"routePath"`
	CreatedAt         string        `json:"createdAt"`
	UpdatedAt         string        `json:"updatedAt"`
}

// Invitation asks a driver to bid on a specific delivery.
type Invitation struct {
	ID        int              `json:"id"`
	Delivery  int              `json:"delivery"`
	Driver    User             `json:"driver"`
	Sender    User             `json:"sender"`
	Status    InvitationStatus `json:"status"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
}

// Bid is a driver's offer to carry a delivery.
type Bid struct {
	ID                    int       `json:"id"`
	Delivery              int       `json:"delivery"`
	Bidder                User      `json:"bidder"`
	Trip                  int       `json:"trip,omitempty"`
	Amount                float64   `json:"amount"`
	Message               string    `json:"message,omitempty"`
	Status                BidStatus `json:"status"`
	EstimatedPickupTime   string    `json:"estimatedPickupTime,omitempty"`
	EstimatedDeliveryTime string    `json:"estimatedDeliveryTime,omitempty"`
	// InvitationID links the bid to the invitation it answers, if any.
	InvitationID int    `json:"invitationId,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// ChatMessage is a message between the sender and driver of a delivery.
type ChatMessage struct {
	ID        int    `json:"id"`
	Delivery  int    `json:"delivery"`
	Sender    User   `json:"sender"`
	Receiver  User   `json:"receiver"`
	Message   string `json:"message"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// SenderDashboardStats aggregates a sender's activity.
type SenderDashboardStats struct {
	TotalDeliveries     int     `json:"totalDeliveries"`
	PendingDeliveries   int     `json:"pendingDeliveries"`
	CompletedDeliveries int     `json:"completedDeliveries"`
	TotalSpent          float64 `json:"totalSpent"`
	AverageRating       float64 `json:"averageRating"`
	TotalRatings        int     `json:"totalRatings"`
}

// DriverDashboardStats aggregates a driver's activity.
type DriverDashboardStats struct {
	TotalTrips      int     `json:"totalTrips"`
	ActiveTrips     int     `json:"activeTrips"`
	TotalDeliveries int     `json:"totalDeliveries"`
	TotalEarned     float64 `json:"totalEarned"`
	TotalBids       int     `json:"totalBids"`
	AcceptedBids    int     `json:"acceptedBids"`
	BidSuccessRate  float64 `json:"bidSuccessRate"`
	AverageRating   float64 `json:"averageRating"`
	TotalRatings    int     `json:"totalRatings"`
}

// SenderDashboard is the sender's dashboard view.
type SenderDashboard struct {
	Stats            SenderDashboardStats `json:"stats"`
	RecentDeliveries []Delivery           `json:"recentDeliveries"`
}

// DriverDashboard is the driver's dashboard view.
type DriverDashboard struct {
	Stats       DriverDashboardStats `json:"stats"`
	RecentTrips []Trip               `json:"recentTrips"`
}

// MatchingTrip is a trip scored against a delivery's route.
type MatchingTrip struct {
	Trip
	MatchScore       float64          `json:"matchScore"`
	EstimatedDetour  float64          `json:"estimatedDetour"`
	InvitationStatus InvitationStatus `json:"invitationStatus,omitempty"`
	InvitationID     int              `json:"invitationId,omitempty"`
	BidStatus        BidStatus        `json:"bidStatus,omitempty"`
	BidID            int              `json:"bidId,omitempty"`
}

// MatchingDelivery is a delivery scored against a trip's route.
type MatchingDelivery struct {
	Delivery
	MatchScore       float64          `json:"matchScore"`
	EstimatedDetour  float64          `json:"estimatedDetour"`
	InvitationStatus InvitationStatus `json:"invitationStatus,omitempty"`
	InvitationID     int              `json:"invitationId,omitempty"`
	BidStatus        BidStatus        `json:"bidStatus,omitempty"`
	BidID            int              `json:"bidId,omitempty"`
}

// AuthResponse is returned by login, register and the auth check.
type AuthResponse struct {
	Message     string      `json:"message"`
	User        User        `json:"user"`
	Permissions Permissions `json:"permissions"`
}

// CheckAuthResponse is returned by the session check. User and
// Permissions are nil when no session exists.
type CheckAuthResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *User        `json:"user"`
	Permissions   *Permissions `json:"permissions"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Phone         string   `json:"phone"`
	UserType      UserType `json:"userType"`
	VehicleType   string   `json:"vehicleType,omitempty"`
	LicenseNumber string   `json:"licenseNumber,omitempty"`
}

// CreateDeliveryForm is the payload for creating a delivery.
type CreateDeliveryForm struct {
	PickupAddress         string   `json:"pickupAddress"`
	PickupSuburb          string   `json:"pickupSuburb"`
	PickupPostcode        string   `json:"pickupPostcode"`
	DropoffAddress        string   `json:"dropoffAddress"`
	DropoffSuburb         string   `json:"dropoffSuburb"`
	DropoffPostcode       string   `json:"dropoffPostcode"`
	ItemSize              ItemSize `json:"itemSize"`
	Description           string   `json:"description"`
	PreferredDeliveryDate string   `json:"preferredDeliveryDate,omitempty"`
	Budget                float64  `json:"budget"`
	Photos                []string `json:"photos,omitempty"`
}

// CreateTripForm is the payload for creating a trip.
type CreateTripForm struct {
	FromAddress       string      `json:"fromAddress"`
	FromSuburb        string      `json:"fromSuburb"`
	FromPostcode      string      `json:"fromPostcode"`
	ToAddress         string      `json:"toAddress"`
	ToSuburb          string      `json:"toSuburb"`
	ToPostcode        string      `json:"toPostcode"`
	DepartureDateTime string      `json:"departureDateTime"`
	VehicleType       VehicleType `json:"vehicleType"`
	AvailableSpace    ItemSize    `json:"availableSpace"`
	MaxDeliveries     int         `json:"maxDeliveries"`
}

// BidForm is the payload for placing a bid.
type BidForm struct {
	DeliveryID            int     `json:"deliveryId"`
	Amount                float64 `json:"amount"`
	Message               string  `json:"message,omitempty"`
	TripID                int     `json:"tripId,omitempty"`
	EstimatedPickupTime   string  `json:"estimatedPickupTime,omitempty"`
	EstimatedDeliveryTime string  `json:"estimatedDeliveryTime,omitempty"`
}

// RatingForm is the payload for rating a user after a delivery.
type RatingForm struct {
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
	UserID     int    `json:"userId"`
	DeliveryID int    `json:"deliveryId"`
}

// UpdateProfileForm is the payload for updating the current user's profile.
type UpdateProfileForm struct {
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Phone         string `json:"phone,omitempty"`
	VehicleType   string `json:"vehicleType,omitempty"`
	LicenseNumber string `json:"licenseNumber,omitempty"`
}

// MessageResponse is the generic acknowledgement many endpoints return.
type MessageResponse struct {
	Message string `json:"message"`
}

// DeliveryResponse wraps a delivery returned by a mutation.
type DeliveryResponse struct {
	Message  string   `json:"message"`
	Delivery Delivery `json:"delivery"`
}

// TripResponse wraps a trip returned by a mutation.
type TripResponse struct {
	Message string `json:"message"`
	Trip    Trip   `json:"trip"`
}

// BidResponse wraps a bid returned by a mutation.
type BidResponse struct {
	Message string `json:"message"`
	Bid     Bid    `json:"bid"`
}

// ChatMessageResponse wraps a chat message returned by sendMessage.
type ChatMessageResponse struct {
	Message     string      `json:"message"`
	ChatMessage ChatMessage `json:"chatMessage"`
}

// InvitationResponse wraps an invitation returned by inviteDriverToBid.
type InvitationResponse struct {
	Message    string     `json:"message"`
	Invitation Invitation `json:"invitation"`
}

// MatchingTripsResponse lists trips matching a delivery's route.
type MatchingTripsResponse struct {
	MatchingTrips []MatchingTrip `json:"matchingTrips"`
}

// MatchingDeliveriesResponse lists deliveries matching a trip's route.
type MatchingDeliveriesResponse struct {
	MatchingDeliveries []MatchingDelivery `json:"matchingDeliveries"`
}

// SendMessageForm is the payload for sending a chat message.
type SendMessageForm struct {
	Delivery int    `json:"delivery"`
	Receiver int    `json:"receiver"`
	Message  string `json:"message"`
}

// UpdateTripForm carries the editable trip fields for an update. Empty
// fields are omitted so the backend keeps the current values.
type UpdateTripForm struct {
	FromAddress       string      `json:"fromAddress,omitempty"`
	FromSuburb        string      `json:"fromSuburb,omitempty"`
	FromPostcode      string      `json:"fromPostcode,omitempty"`
	ToAddress         string      `json:"toAddress,omitempty"`
	ToSuburb          string      `json:"toSuburb,omitempty"`
	ToPostcode        string      `json:"toPostcode,omitempty"`
	DepartureDateTime string      `json:"departureDateTime,omitempty"`
	VehicleType       VehicleType `json:"vehicleType,omitempty"`
	AvailableSpace    ItemSize    `json:"availableSpace,omitempty"`
	MaxDeliveries     int         `json:"maxDeliveries,omitempty"`
	Status            TripStatus  `json:"status,omitempty"`
}

// InvitationStatusForm is the payload for updating an invitation.
type InvitationStatusForm struct {
	Status InvitationStatus `json:"status"`
}
