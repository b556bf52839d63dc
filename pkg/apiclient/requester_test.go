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

package apiclient_test

import (
	"context"
	"errors"
	"net/http"

	"github.com/h2non/gock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/giftakari/cargobuddy-frontend/pkg/apiclient"
	"github.com/giftakari/cargobuddy-frontend/pkg/logger"
	"github.com/giftakari/cargobuddy-frontend/pkg/models"
)

var _ = Describe("Requester", func() {

	const apiURL = "http://cargobuddy.test"

	var log *zap.SugaredLogger
	var cookies map[string]string

	BeforeEach(func() {
		log = logger.For("RequesterTest")
		cookies = map[string]string{}
		gock.InterceptClient(apiclient.GetClient(false))
	})

	AfterEach(func() {
		gock.OffAll()
		gock.RestoreClient(apiclient.GetClient(false))
	})

	Context("GetRequest", func() {
		It("decodes the response body into the typed result", func() {
			gock.New(apiURL).
				Get("/api/deliveries/7").
				Reply(http.StatusOK).
				JSON(map[string]any{"id": 7, "status": "pending", "description": "two boxes"})

			delivery, err, status := apiclient.GetRequest[models.Delivery](context.Background(), apiclient.DeliveryEndpoint(7), nil, &cookies, false, apiURL, log)
			Expect(err).ToNot(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
			Expect(delivery.ID).To(Equal(7))
			Expect(delivery.Status).To(Equal(models.DeliveryStatusPending))
			Expect(delivery.Description).To(Equal("two boxes"))
		})

		It("returns ErrUnauthorized for a 401 response", func() {
			gock.New(apiURL).
				Get("/api/users/profile").
				Reply(http.StatusUnauthorized).
				JSON(map[string]string{"message": "not logged in"})

			_, err, status := apiclient.GetRequest[models.User](context.Background(), apiclient.ProfileEndpoint, nil, &cookies, false, apiURL, log)
			Expect(err).To(MatchError(apiclient.ErrUnauthorized))
			Expect(status).To(Equal(http.StatusUnauthorized))
		})

		It("returns an APIError carrying the status for other failures", func() {
			gock.New(apiURL).
				Get("/api/trips").
				Reply(http.StatusInternalServerError).
				BodyString("boom")

			_, err, status := apiclient.GetRequest[[]models.Trip](context.Background(), apiclient.TripsEndpoint, nil, &cookies, false, apiURL, log)
			Expect(err).To(HaveOccurred())
			Expect(status).To(Equal(http.StatusInternalServerError))

			var apiErr *apiclient.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Status).To(Equal(http.StatusInternalServerError))
		})
	})

	Context("PostRequest", func() {
		It("marshals the payload and decodes the response", func() {
			gock.New(apiURL).
				Post("/api/auth/login").
				JSON(map[string]string{"email": "sender@example.com", "password": "hunter2"}).
				Reply(http.StatusOK).
				JSON(map[string]any{
					"message":     "ok",
					"user":        map[string]any{"id": 3, "email": "sender@example.com", "userType": "sender"},
					"permissions": map[string]any{"canCreateDeliveries": true, "canSendPackages": true},
				})

			creds := models.LoginRequest{Email: "sender@example.com", Password: "hunter2"}
			resp, err, _ := apiclient.PostRequest[models.AuthResponse](context.Background(), apiclient.LoginEndpoint, &creds, nil, &cookies, false, apiURL, log)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.User.ID).To(Equal(3))
			Expect(resp.Permissions.CanCreateDeliveries).To(BeTrue())
			Expect(resp.Permissions.CanBid).To(BeFalse())
		})
	})

	Context("session cookies", func() {
		It("captures Set-Cookie values and replays them on later requests", func() {
			gock.New(apiURL).
				Post("/api/auth/login").
				Reply(http.StatusOK).
				SetHeader("Set-Cookie", "cargobuddy.sid=s%3Aabc123; Path=/; HttpOnly").
				JSON(map[string]any{"message": "ok", "user": map[string]any{"id": 1}, "permissions": map[string]any{}})

			creds := models.LoginRequest{Email: "a@b.c", Password: "pw"}
			_, err, _ := apiclient.PostRequest[models.AuthResponse](context.Background(), apiclient.LoginEndpoint, &creds, nil, &cookies, false, apiURL, log)
			Expect(err).ToNot(HaveOccurred())
			Expect(cookies).To(HaveKeyWithValue("cargobuddy.sid", "s%3Aabc123"))

			gock.New(apiURL).
				Get("/api/auth/check").
				MatchHeader("Cookie", "cargobuddy.sid=s%3Aabc123").
				Reply(http.StatusOK).
				JSON(map[string]any{"authenticated": true, "user": map[string]any{"id": 1}, "permissions": map[string]any{}})

			resp, err, _ := apiclient.GetRequest[models.CheckAuthResponse](context.Background(), apiclient.CheckAuthEndpoint, nil, &cookies, false, apiURL, log)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Authenticated).To(BeTrue())
		})
	})

	Context("endpoint builders", func() {
		It("renders path parameters", func() {
			Expect(string(apiclient.AcceptBidEndpoint(12, 34))).To(Equal("/api/deliveries/12/accept-bid/34"))
			Expect(string(apiclient.InviteDriverEndpoint(5, 9))).To(Equal("/api/deliveries/5/invite-driver/9"))
			Expect(string(apiclient.ChatMessagesEndpoint(8))).To(Equal("/api/chat/delivery/8"))
		})

		It("omits zero-valued bid filters", func() {
			Expect(string(apiclient.BidsFilterEndpoint(0, 0))).To(Equal("/api/bids"))
			Expect(string(apiclient.BidsFilterEndpoint(3, 0))).To(Equal("/api/bids?delivery=3"))
			Expect(string(apiclient.BidsFilterEndpoint(3, 7))).To(Equal("/api/bids?bidder=7&delivery=3"))
		})
	})
})
