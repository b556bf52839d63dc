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

// Package client exposes the typed CargoBuddy operations. Queries go
// through the cache store so repeated reads of the same resource
// deduplicate; mutations call the backend and then apply their cache
// effects, so dependent queries refetch.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/giftakari/cargobuddy-frontend/pkg/apiclient"
	"github.com/giftakari/cargobuddy-frontend/pkg/cache"
	"github.com/giftakari/cargobuddy-frontend/pkg/config"
	"github.com/giftakari/cargobuddy-frontend/pkg/models"
	"github.com/giftakari/cargobuddy-frontend/pkg/notifications"
	"github.com/giftakari/cargobuddy-frontend/pkg/session"
)

// ErrPermissionDenied is returned when the current session does not
// allow the attempted operation.
var ErrPermissionDenied = errors.New("the current session does not permit this operation")

const (
	senderDashboardKey cache.Key = "sender"
	driverDashboardKey cache.Key = "driver"
)

// Client ties the REST API, the cache store and the session together.
// The zero value is not usable; construct it with New.
type Client struct {
	cfg         config.APIConfig
	store       *cache.Store
	coordinator *cache.Coordinator
	sessions    *session.Manager
	center      *notifications.Center
	logger      *zap.SugaredLogger

	// The cookie jar is shared by foreground operations and the cache's
	// background refetch goroutines. Every request works on a snapshot
	// and merges updates back under the lock; the jar map itself never
	// leaves this struct. cookieGen detects a logout racing a request,
	// so an in-flight response cannot resurrect a cleared session.
	cookieMu  sync.Mutex
	cookies   map[string]string
	cookieGen uint64
}

// New creates a Client. The notification center may be nil when no
// notification teardown on logout is wanted.
func New(cfg config.APIConfig, store *cache.Store, coordinator *cache.Coordinator, sessions *session.Manager, center *notifications.Center, logger *zap.SugaredLogger) *Client {
	return &Client{
		cfg:         cfg,
		store:       store,
		coordinator: coordinator,
		sessions:    sessions,
		center:      center,
		cookies:     make(map[string]string),
		logger:      logger,
	}
}

// CookieHeader renders the captured session cookies as an HTTP header,
// so the realtime channel can authenticate its websocket handshake with
// the same session.
func (c *Client) CookieHeader() http.Header {
	c.cookieMu.Lock()
	pairs := make([]string, 0, len(c.cookies))
	for name, value := range c.cookies {
		pairs = append(pairs, name+"="+value)
	}
	c.cookieMu.Unlock()

	header := http.Header{}
	if len(pairs) > 0 {
		header.Set("Cookie", strings.Join(pairs, "; "))
	}
	return header
}

// snapshotCookies copies the jar for one request, together with the
// generation the copy was taken at.
func (c *Client) snapshotCookies() (map[string]string, uint64) {
	c.cookieMu.Lock()
	defer c.cookieMu.Unlock()

	snap := make(map[string]string, len(c.cookies))
	for name, value := range c.cookies {
		snap[name] = value
	}
	return snap, c.cookieGen
}

// storeCookies merges cookies captured during a request back into the
// jar. A stale generation means the jar was reset while the request was
// in flight; the captured cookies are dropped.
func (c *Client) storeCookies(snap map[string]string, gen uint64) {
	c.cookieMu.Lock()
	defer c.cookieMu.Unlock()

	if gen != c.cookieGen {
		return
	}
	for name, value := range snap {
		c.cookies[name] = value
	}
}

// resetCookies empties the jar and bumps the generation.
func (c *Client) resetCookies() {
	c.cookieMu.Lock()
	defer c.cookieMu.Unlock()

	c.cookies = make(map[string]string)
	c.cookieGen++
}

// getRequest runs a GET against the backend with the session cookies
// attached. Cookie updates from the response land back in the jar.
func getRequest[R any](ctx context.Context, c *Client, endpoint apiclient.Endpoint) (*R, error) {
	cookies, gen := c.snapshotCookies()
	resp, err, _ := apiclient.GetRequest[R](ctx, endpoint, nil, &cookies, c.cfg.InsecureTLS, c.cfg.BaseURL, c.logger)
	c.storeCookies(cookies, gen)
	return resp, err
}

// postRequest runs a POST; body may be nil for bodyless endpoints.
func postRequest[R any, T any](ctx context.Context, c *Client, endpoint apiclient.Endpoint, body *T) (*R, error) {
	cookies, gen := c.snapshotCookies()
	resp, err, _ := apiclient.PostRequest[R, T](ctx, endpoint, body, nil, &cookies, c.cfg.InsecureTLS, c.cfg.BaseURL, c.logger)
	c.storeCookies(cookies, gen)
	return resp, err
}

// putRequest runs a PUT; body may be nil for bodyless endpoints.
func putRequest[R any, T any](ctx context.Context, c *Client, endpoint apiclient.Endpoint, body *T) (*R, error) {
	cookies, gen := c.snapshotCookies()
	resp, err, _ := apiclient.PutRequest[R, T](ctx, endpoint, body, nil, &cookies, c.cfg.InsecureTLS, c.cfg.BaseURL, c.logger)
	c.storeCookies(cookies, gen)
	return resp, err
}

// Auth operations.

// Login authenticates against the backend and replaces the session.
func (c *Client) Login(ctx context.Context, credentials models.LoginRequest) (*models.AuthResponse, error) {
	resp, err := postRequest[models.AuthResponse](ctx, c, apiclient.LoginEndpoint, &credentials)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	c.sessions.Set(resp.User, resp.Permissions)
	c.store.Invalidate(cache.KindTag(cache.KindUser), cache.KindTag(cache.KindDashboard))
	return resp, nil
}

// Register creates an account. The backend logs the new user in, so the
// session is replaced as well.
func (c *Client) Register(ctx context.Context, form models.RegisterRequest) (*models.AuthResponse, error) {
	resp, err := postRequest[models.AuthResponse](ctx, c, apiclient.RegisterEndpoint, &form)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	c.sessions.Set(resp.User, resp.Permissions)
	return resp, nil
}

// Logout ends the backend session and tears down all local state: the
// session, every cache entry and the notification queue. Local state is
// dropped even when the backend call fails, so a dead backend cannot
// pin a stale session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := postRequest[models.MessageResponse, struct{}](ctx, c, apiclient.LogoutEndpoint, nil)

	c.sessions.Clear()
	c.store.Clear()
	if c.center != nil {
		c.center.Clear()
	}
	c.resetCookies()

	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

// CheckAuth asks the backend whether the session cookie is still valid
// and syncs the session to the answer.
func (c *Client) CheckAuth(ctx context.Context) (*models.CheckAuthResponse, error) {
	resp, err := getRequest[models.CheckAuthResponse](ctx, c, apiclient.CheckAuthEndpoint)
	if err != nil {
		return nil, fmt.Errorf("auth check failed: %w", err)
	}
	if resp.Authenticated && resp.User != nil {
		var permissions models.Permissions
		if resp.Permissions != nil {
			permissions = *resp.Permissions
		}
		c.sessions.Set(*resp.User, permissions)
	} else {
		c.sessions.Clear()
	}
	return resp, nil
}

// User operations.

// GetProfile returns the current user's profile through the cache.
func (c *Client) GetProfile(ctx context.Context) (models.User, error) {
	payload, err := c.store.Request(ctx, cache.KindUser, cache.ListKey, func(ctx context.Context) (any, error) {
		resp, err := getRequest[models.User](ctx, c, apiclient.ProfileEndpoint)
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}, cache.KindTag(cache.KindUser))
	if err != nil {
		return models.User{}, err
	}
	return payload.(models.User), nil
}

// UpdateProfile patches the current user's profile and syncs the
// session's identity fields to the result.
func (c *Client) UpdateProfile(ctx context.Context, form models.UpdateProfileForm) (*models.User, error) {
	result, err := c.store.Mutate(ctx, func(ctx context.Context) (any, error) {
		resp, err := putRequest[models.User](ctx, c, apiclient.ProfileEndpoint, &form)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}, cache.InvalidateTags(cache.KindTag(cache.KindUser)))
	if err != nil {
		return nil, fmt.Errorf("profile update failed: %w", err)
	}
	user := result.(*models.User)
	c.sessions.ApplyProfile(*user)
	return user, nil
}

// RateUser submits a rating for the counterparty of a delivery.
func (c *Client) RateUser(ctx context.Context, form models.RatingForm) error {
	_, err := c.store.Mutate(ctx, func(ctx context.Context) (any, error) {
		resp, err := postRequest[models.MessageResponse](ctx, c, apiclient.RateUserEndpoint, &form)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}, cache.InvalidateTags(cache.KindTag(cache.KindUser), cache.KindTag(cache.KindDelivery)))
	if err != nil {
		return fmt.Errorf("rating failed: %w", err)
	}
	return nil
}

// Delivery operations.

// GetDeliveries lists the current user's deliveries through the cache.
func (c *Client) GetDeliveries(ctx context.Context) ([]models.Delivery, error) {
	payload, err := c.store.Request(ctx, cache.KindDelivery, cache.ListKey, func(ctx context.Context) (any, error) {
		resp, err := getRequest[[]models.Delivery](ctx, c, apiclient.DeliveriesEndpoint)
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}, cache.KindTag(cache.KindDelivery))
	if err != nil {
		return nil, err
	}
	return payload.([]models.Delivery), nil
}

// CreateDelivery posts a new delivery request.
func (c *Client) CreateDelivery(ctx context.Context, form models.CreateDeliveryForm) (*models.DeliveryResponse, error) {
	if !c.sessions.Can(session.CanCreateDeliveries) {
		return nil, fmt.Errorf("create delivery: %w", ErrPermissionDenied)
	}
	result, err := c.store.Mutate(ctx, func(ctx context.Context) (any, error) {
		resp, err := postRequest[models.DeliveryResponse](ctx, c, apiclient.DeliveriesEndpoint, &form)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}, cache.InvalidateTags(cache.KindTag(cache.KindDelivery), cache.KindTag(cache.KindDashboard)))
	if err != nil {
		return nil, fmt.Errorf("delivery creation failed: %w", err)
	}
	return result.(*models.DeliveryResponse), nil
}

// GetDelivery returns one delivery through the cache.
func (c *Client) GetDelivery(ctx context.Context, id int) (models.Delivery, error) {
	payload, err := c.store.Request(ctx, cache.KindDelivery, cache.IDKey(id), func(ctx context.Context) (any, error) {
		resp, err := getRequest[models.Delivery](ctx, c, apiclient.DeliveryEndpoint(id))
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}, cache.IDTag(cache.KindDelivery, id))
	if err != nil {
		return models.Delivery{}, err
	}
	return payload.(models.Delivery), nil
}

// GetDeliveryMatching lists the trips whose routes match a delivery.
func (c *Client) GetDeliveryMatching(ctx context.Context, id int) ([]models.MatchingTrip, error) {
	key := cache.QueryKey(map[string]string{"delivery": strconv.Itoa(id)})
	payload, err := c.store.Request(ctx, cache.KindMatching, key, func(ctx context.Context) (any, error) {
		resp, err := getRequest[models.MatchingTripsResponse](ctx, c, apiclient.DeliveryMatchingEndpoint(id))
		if err != nil {
			return nil, err
		}
		return resp.MatchingTrips, nil
	}, cache.KindTag(cache.KindMatching))
	if err != nil {
		return nil, err
	}
	return payload.([]models.MatchingTrip), nil
}

// AcceptBid accepts one bid on a delivery. The cached delivery and bid
// list flip to their accepted shape before the backend confirms; a
// backend failure restores them exactly. On success the affected kinds
// are marked stale so subscribed views converge on the server's truth.
func (c *Client) AcceptBid(ctx context.Context, deliveryID int, bidID int) (*models.DeliveryResponse, error) {
	result, err := c.coordinator.AcceptBid(ctx, deliveryID, bidID, func(ctx context.Context) (any, error) {
		resp, err := postRequest[models.DeliveryResponse, struct{}](ctx, c, apiclient.AcceptBidEndpoint(deliveryID, bidID), nil)
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("accepting bid %d on delivery %d failed: %w", bidID, deliveryID, err)
	}
	c.store.Invalidate(cache.KindTag(cache.KindDelivery), cache.KindTag(cache.KindBid), cache.KindTag(cache.KindDashboard))
	return result.(*models.DeliveryResponse), nil
}

// MarkDelivered marks a delivery as completed.
func (c *Client) MarkDelivered(ctx context.Context, id int) (*models.DeliveryResponse, error) {
	result, err := c.store.Mutate(ctx, func(ctx context.Context) (any, error) {
		resp, err := putRequest[models.DeliveryResponse, struct{}](ctx, c, apiclient.MarkDeliveredEndpoint(id), nil)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}, cache.InvalidateTags(cache.KindTag(cache.KindDelivery), cache.KindTag(cache.KindDashboard)))
	if err != nil {
		return nil, fmt.Errorf("marking delivery %d delivered failed: %w", id, err)
	}
	return result.(*models.DeliveryResponse), nil
}

// InviteDriverToBid invites a specific driver to bid on a delivery.
func (c *Client) InviteDriverToBid(ctx context.Context, deliveryID int, driverID int) (*models.InvitationResponse, error) {
	result, err := c.store.Mutate(ctx, func(ctx context.Context) (any, error) {
		resp, err := postRequest[models.InvitationResponse, struct{}](ctx, c, apiclient.InviteDriverEndpoint(deliveryID, driverID), nil)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}, cache.InvalidateTags(cache.KindTag(cache.KindDelivery)))
	if err != nil {
		return nil, fmt.Errorf("inviting driver %d to delivery %d failed: %w", driverID, deliveryID, err)
	}
	return result.(*models.InvitationResponse), nil
}

// GetDeliveryInvitations lists the invitations sent for a delivery.
// The entries carry the Delivery tag as well, so delivery mutations
// refetch them.
func (c *Client) GetDeliveryInvitations(ctx context.Context, deliveryID int) ([]models.Invitation, error) {
	key := cache.QueryKey(map[string]string{"delivery": strconv.Itoa(deliveryID)})
	payload, err := c.store.Request(ctx, cache.KindInvitation, key, func(ctx context.Context) (any, error) {
		resp, err := getRequest[[]models.Invitation](ctx, c, apiclient.DeliveryInvitationsEndpoint(deliveryID))
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}, cache.KindTag(cache.KindInvitation), cache.KindTag(cache.KindDelivery))
	if err != nil {
		return nil, err
	}
	return payload.([]models.Invitation), nil
}

// UpdateInvitationStatus records that a driver viewed or answered an
// invitation.
func (c *Client) UpdateInvitationStatus(ctx context.Context, invitationID int, status models.InvitationStatus) error {
	form := models.InvitationStatusForm{Status: status}
	_, err := c.store.Mutate(ctx, func(ctx context.Context) (any, error) {
		resp, err := putRequest[models.MessageResponse](ctx, c, apiclient.InvitationStatusEndpoint(invitationID), &form)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}, cache.InvalidateTags(cache.KindTag(cache.KindDelivery)))
	if err != nil {
		return fmt.Errorf("updating invitation %d to %s failed: %w", invitationID, status, err)
	}
	return nil
}

// Trip operations.

// GetTrips lists the current user's trips through the cache.
func (c *Client) GetTrips(ctx context.Context) ([]models.Trip, error) {
	payload, err := c.store.Request(ctx, cache.KindTrip, cache.ListKey, func(ctx context.Context) (any, error) {
		resp, err := getRequest[[]models.Trip](ctx, c, apiclient.TripsEndpoint)
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}, cache.KindTag(cache.KindTrip))
	if err != nil {
		return nil, err
	}
	return payload.([]models.Trip), nil
}

// CreateTrip posts a new trip.
func (c *Client) CreateTrip(ctx context.Context, form models.CreateTripForm) (*models.TripResponse, error) {
	if !c.sessions.Can(session.CanCreateTrips) {
		return nil, fmt.Errorf("create trip: %w", ErrPermissionDenied)
	}
	result, err := c.store.Mutate(ctx, func(ctx context.Context) (any, error) {
		resp, err := postRequest[models.TripResponse](ctx, c, apiclient.TripsEndpoint, &form)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}, cache.InvalidateTags(cache.KindTag(cache.KindTrip), cache.KindTag(cache.KindDashboard)))
	if err != nil {
		return nil, fmt.Errorf("trip creation failed: %w", err)
	}
	return result.(*models.TripResponse), nil
}

// GetTrip returns one trip through the cache.
func (c *Client) GetTrip(ctx context.Context, id int) (models.Trip, error) {
	payload, err := c.store.Request(ctx, cache.KindTrip, cache.IDKey(id), func(ctx context.Context) (any, error) {
		resp, err := getRequest[models.Trip](ctx, c, apiclient.TripEndpoint(id))
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}, cache.IDTag(cache.KindTrip, id))
	if err != nil {
		return models.Trip{}, err
	}
	return payload.(models.Trip), nil
}

// GetTripMatching lists the deliveries whose routes match a trip.
func (c *Client) GetTripMatching(ctx context.Context, id int) ([]models.MatchingDelivery, error) {
	key := cache.QueryKey(map[string]string{"trip": strconv.Itoa(id)})
	payload, err := c.store.Request(ctx, cache.KindMatching, key, func(ctx context.Context) (any, error) {
		resp, err := getRequest[models.MatchingDeliveriesResponse](ctx, c, apiclient.TripMatchingEndpoint(id))
		if err != nil {
			return nil, err
		}
		return resp.MatchingDeliveries, nil
	}, cache.KindTag(cache.KindMatching))
	if err != nil {
		return nil, err
	}
	return payload.([]models.MatchingDelivery), nil
}

// UpdateTrip edits a trip.
func (c *Client) UpdateTrip(ctx context.Context, id int, form models.UpdateTripForm) (*models.TripResponse, error) {
	result, err := c.store.Mutate(ctx, func(ctx context.Context) (any, error) {
		resp, err := putRequest[models.TripResponse](ctx, c, apiclient.TripEndpoint(id), &form)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}, cache.InvalidateTags(cache.KindTag(cache.KindTrip), cache.KindTag(cache.KindDashboard)))
	if err != nil {
		return nil, fmt.Errorf("updating trip %d failed: %w", id, err)
	}
	return result.(*models.TripResponse), nil
}

// Bid operations.

// GetBids lists bids, optionally filtered by delivery and/or bidder.
// Zero means the filter is not applied. The cache key mirrors the
// filter so different filters cache independently.
func (c *Client) GetBids(ctx context.Context, deliveryID int, bidderID int) ([]models.Bid, error) {
	params := map[string]string{}
	if deliveryID != 0 {
		params["delivery"] = strconv.Itoa(deliveryID)
	}
	if bidderID != 0 {
		params["bidder"] = strconv.Itoa(bidderID)
	}
	payload, err := c.store.Request(ctx, cache.KindBid, cache.QueryKey(params), func(ctx context.Context) (any, error) {
		resp, err := getRequest[[]models.Bid](ctx, c, apiclient.BidsFilterEndpoint(deliveryID, bidderID))
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}, cache.KindTag(cache.KindBid))
	if err != nil {
		return nil, err
	}
	return payload.([]models.Bid), nil
}

// CreateBid places a bid on a delivery.
func (c *Client) CreateBid(ctx context.Context, form models.BidForm) (*models.BidResponse, error) {
	if !c.sessions.Can(session.CanBid) {
		return nil, fmt.Errorf("create bid: %w", ErrPermissionDenied)
	}
	result, err := c.store.Mutate(ctx, func(ctx context.Context) (any, error) {
		resp, err := postRequest[models.BidResponse](ctx, c, apiclient.BidsEndpoint, &form)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}, cache.InvalidateTags(cache.KindTag(cache.KindBid), cache.KindTag(cache.KindDelivery)))
	if err != nil {
		return nil, fmt.Errorf("bid creation failed: %w", err)
	}
	return result.(*models.BidResponse), nil
}

// WithdrawBid withdraws one of the current user's bids.
func (c *Client) WithdrawBid(ctx context.Context, id int) error {
	_, err := c.store.Mutate(ctx, func(ctx context.Context) (any, error) {
		resp, err := putRequest[models.MessageResponse, struct{}](ctx, c, apiclient.WithdrawBidEndpoint(id), nil)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}, cache.InvalidateTags(cache.KindTag(cache.KindBid)))
	if err != nil {
		return fmt.Errorf("withdrawing bid %d failed: %w", id, err)
	}
	return nil
}

// Chat operations.

// GetChatMessages lists the chat history of a delivery through the
// cache.
func (c *Client) GetChatMessages(ctx context.Context, deliveryID int) ([]models.ChatMessage, error) {
	payload, err := c.store.Request(ctx, cache.KindChat, cache.IDKey(deliveryID), func(ctx context.Context) (any, error) {
		resp, err := getRequest[[]models.ChatMessage](ctx, c, apiclient.ChatMessagesEndpoint(deliveryID))
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}, cache.KindTag(cache.KindChat))
	if err != nil {
		return nil, err
	}
	return payload.([]models.ChatMessage), nil
}

// SendMessage sends a chat message to the counterparty of a delivery.
func (c *Client) SendMessage(ctx context.Context, form models.SendMessageForm) (*models.ChatMessageResponse, error) {
	result, err := c.store.Mutate(ctx, func(ctx context.Context) (any, error) {
		resp, err := postRequest[models.ChatMessageResponse](ctx, c, apiclient.ChatEndpoint, &form)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}, cache.InvalidateTags(cache.KindTag(cache.KindChat)))
	if err != nil {
		return nil, fmt.Errorf("sending message failed: %w", err)
	}
	return result.(*models.ChatMessageResponse), nil
}

// Dashboard operations.

// GetSenderDashboard returns the sender dashboard through the cache.
func (c *Client) GetSenderDashboard(ctx context.Context) (models.SenderDashboard, error) {
	payload, err := c.store.Request(ctx, cache.KindDashboard, senderDashboardKey, func(ctx context.Context) (any, error) {
		resp, err := getRequest[models.SenderDashboard](ctx, c, apiclient.SenderDashboardEndpoint)
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}, cache.KindTag(cache.KindDashboard))
	if err != nil {
		return models.SenderDashboard{}, err
	}
	return payload.(models.SenderDashboard), nil
}

// GetDriverDashboard returns the driver dashboard through the cache.
func (c *Client) GetDriverDashboard(ctx context.Context) (models.DriverDashboard, error) {
	payload, err := c.store.Request(ctx, cache.KindDashboard, driverDashboardKey, func(ctx context.Context) (any, error) {
		resp, err := getRequest[models.DriverDashboard](ctx, c, apiclient.DriverDashboardEndpoint)
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}, cache.KindTag(cache.KindDashboard))
	if err != nil {
		return models.DriverDashboard{}, err
	}
	return payload.(models.DriverDashboard), nil
}
