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

package client_test

import (
	"context"
	"net/http"
	"sync"

	"github.com/h2non/gock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/giftakari/cargobuddy-frontend/pkg/apiclient"
	"github.com/giftakari/cargobuddy-frontend/pkg/cache"
	"github.com/giftakari/cargobuddy-frontend/pkg/client"
	"github.com/giftakari/cargobuddy-frontend/pkg/config"
	"github.com/giftakari/cargobuddy-frontend/pkg/logger"
	"github.com/giftakari/cargobuddy-frontend/pkg/models"
	"github.com/giftakari/cargobuddy-frontend/pkg/notifications"
	"github.com/giftakari/cargobuddy-frontend/pkg/session"
)

var _ = Describe("Client", func() {

	const apiURL = "http://cargobuddy.test"

	var (
		store    *cache.Store
		sessions *session.Manager
		center   *notifications.Center
		api      *client.Client
	)

	loginBody := map[string]any{
		"message": "Login successful",
		"user": map[string]any{
			"id":        42,
			"email":     "ada@example.com",
			"firstName": "Ada",
			"lastName":  "Lovelace",
			"userType":  "sender",
		},
		"permissions": map[string]any{
			"canCreateDeliveries": true,
			"canCreateTrips":      false,
			"canBid":              false,
			"canSendPackages":     true,
		},
	}

	login := func() {
		gock.New(apiURL).
			Post("/api/auth/login").
			Reply(http.StatusOK).
			AddHeader("Set-Cookie", "cargobuddy.sid=s3cret; Path=/; HttpOnly").
			JSON(loginBody)

		_, err := api.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "pw"})
		Expect(err).ToNot(HaveOccurred())
	}

	BeforeEach(func() {
		store = cache.NewStore(logger.For("ClientTest"))
		coordinator := cache.NewCoordinator(store, logger.For("ClientTest"))
		sessions = session.NewManager(logger.For("ClientTest"))
		center = notifications.NewCenter(0, nil, logger.For("ClientTest"))
		api = client.New(config.APIConfig{BaseURL: apiURL}, store, coordinator, sessions, center, logger.For("ClientTest"))
		gock.InterceptClient(apiclient.GetClient(false))
	})

	AfterEach(func() {
		gock.OffAll()
		gock.RestoreClient(apiclient.GetClient(false))
	})

	Context("Login", func() {
		It("establishes the session and captures the session cookie", func() {
			login()

			Expect(sessions.Authenticated()).To(BeTrue())
			current := sessions.Current()
			Expect(current.User.ID).To(Equal(42))
			Expect(sessions.Can(session.CanCreateDeliveries)).To(BeTrue())
			Expect(sessions.Can(session.CanBid)).To(BeFalse())

			Expect(api.CookieHeader().Get("Cookie")).To(ContainSubstring("cargobuddy.sid=s3cret"))
		})
	})

	Context("CheckAuth", func() {
		It("clears the session when the backend omits the user", func() {
			login()
			Expect(sessions.Authenticated()).To(BeTrue())

			gock.New(apiURL).
				Get("/api/auth/check").
				Reply(http.StatusOK).
				JSON(map[string]any{"authenticated": true, "user": nil})

			resp, err := api.CheckAuth(context.Background())
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Authenticated).To(BeTrue())
			Expect(sessions.Authenticated()).To(BeFalse())
		})
	})

	Context("concurrent requests", func() {
		It("keeps the cookie jar consistent under parallel cookie updates", func() {
			gock.New(apiURL).
				Post("/api/auth/login").
				Persist().
				Reply(http.StatusOK).
				AddHeader("Set-Cookie", "cargobuddy.sid=s3cret; Path=/; HttpOnly").
				JSON(loginBody)
			gock.New(apiURL).
				Get("/api/deliveries/\\d+").
				Persist().
				Reply(http.StatusOK).
				AddHeader("Set-Cookie", "cargobuddy.sid=r0tated; Path=/; HttpOnly").
				JSON(map[string]any{"id": 1, "status": "pending"})

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(n int) {
					defer GinkgoRecover()
					defer wg.Done()
					if n%2 == 0 {
						_, err := api.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "pw"})
						Expect(err).ToNot(HaveOccurred())
					} else {
						_, err := api.GetDelivery(context.Background(), n)
						Expect(err).ToNot(HaveOccurred())
					}
				}(i)
			}
			wg.Wait()

			Expect(api.CookieHeader().Get("Cookie")).To(ContainSubstring("cargobuddy.sid="))
		})
	})

	Context("Logout", func() {
		It("drops the session, the cache and the notifications", func() {
			login()
			center.Enqueue(models.Notification{ID: "n1", Type: models.NotificationTypeBid})

			gock.New(apiURL).
				Post("/api/auth/logout").
				Reply(http.StatusOK).
				JSON(map[string]any{"message": "Logged out"})

			Expect(api.Logout(context.Background())).To(Succeed())

			Expect(sessions.Authenticated()).To(BeFalse())
			Expect(center.Notifications()).To(BeEmpty())
			Expect(api.CookieHeader().Get("Cookie")).To(BeEmpty())
		})

		It("drops local state even when the backend call fails", func() {
			login()

			gock.New(apiURL).
				Post("/api/auth/logout").
				Reply(http.StatusBadGateway)

			Expect(api.Logout(context.Background())).ToNot(Succeed())
			Expect(sessions.Authenticated()).To(BeFalse())
			Expect(api.CookieHeader().Get("Cookie")).To(BeEmpty())
		})
	})

	Context("queries", func() {
		It("serves repeated reads from the cache", func() {
			gock.New(apiURL).
				Get("/api/deliveries").
				Reply(http.StatusOK).
				JSON([]map[string]any{{"id": 1, "status": "pending"}})

			first, err := api.GetDeliveries(context.Background())
			Expect(err).ToNot(HaveOccurred())
			Expect(first).To(HaveLen(1))

			// No second mock registered: a refetch would fail.
			second, err := api.GetDeliveries(context.Background())
			Expect(err).ToNot(HaveOccurred())
			Expect(second).To(Equal(first))
		})
	})

	Context("mutations", func() {
		It("invalidates the delivery list after creating a delivery", func() {
			login()

			gock.New(apiURL).
				Get("/api/deliveries").
				Reply(http.StatusOK).
				JSON([]map[string]any{{"id": 1, "status": "pending"}})
			_, err := api.GetDeliveries(context.Background())
			Expect(err).ToNot(HaveOccurred())

			gock.New(apiURL).
				Post("/api/deliveries").
				Reply(http.StatusCreated).
				JSON(map[string]any{"message": "created", "delivery": map[string]any{"id": 2, "status": "pending"}})

			resp, err := api.CreateDelivery(context.Background(), models.CreateDeliveryForm{Description: "a fridge"})
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Delivery.ID).To(Equal(2))

			_, status, _ := store.Peek(cache.KindDelivery, cache.ListKey)
			Expect(status).To(Equal(cache.StatusStale))
		})

		It("refuses gated mutations without the permission", func() {
			login() // canCreateTrips and canBid are false

			_, err := api.CreateTrip(context.Background(), models.CreateTripForm{})
			Expect(err).To(MatchError(client.ErrPermissionDenied))

			_, err = api.CreateBid(context.Background(), models.BidForm{DeliveryID: 1, Amount: 40})
			Expect(err).To(MatchError(client.ErrPermissionDenied))
		})
	})
})
