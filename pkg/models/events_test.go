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

package models_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/giftakari/cargobuddy-frontend/pkg/models"
)

var _ = Describe("DecodeEvent", func() {

	It("decodes a new_bid envelope into its typed payload", func() {
		raw := []byte(`{"event":"new_bid","data":{"deliveryId":4,"bidId":11,"bidderId":2,"amount":75.5}}`)

		event, err := models.DecodeEvent(raw)
		Expect(err).ToNot(HaveOccurred())
		Expect(event.Type).To(Equal(models.EventTypeNewBid))

		payload := event.Payload.(*models.NewBidEvent)
		Expect(payload.DeliveryID).To(Equal(4))
		Expect(payload.BidID).To(Equal(11))
		Expect(payload.BidderID).To(Equal(2))
		Expect(payload.Amount).To(Equal(75.5))
	})

	It("decodes an invitation with its embedded delivery summary", func() {
		raw := []byte(`{"event":"invitation_received","data":{"deliveryId":9,"invitationId":3,"delivery":{"description":"garden chairs"}}}`)

		event, err := models.DecodeEvent(raw)
		Expect(err).ToNot(HaveOccurred())

		payload := event.Payload.(*models.InvitationReceivedEvent)
		Expect(payload.DeliveryID).To(Equal(9))
		Expect(payload.Delivery.Description).To(Equal("garden chairs"))
	})

	It("decodes a chat message with its sender", func() {
		raw := []byte(`{"event":"newMessage","data":{"delivery":2,"message":"on my way","sender":{"id":5,"firstName":"Ada"}}}`)

		event, err := models.DecodeEvent(raw)
		Expect(err).ToNot(HaveOccurred())

		payload := event.Payload.(*models.NewMessageEvent)
		Expect(payload.Delivery).To(Equal(2))
		Expect(payload.Message).To(Equal("on my way"))
		Expect(payload.Sender.FirstName).To(Equal("Ada"))
	})

	It("decodes a server-authored notification", func() {
		raw := []byte(`{"event":"notification","data":{"type":"delivery_update","title":"Heads up","message":"Running late","data":{"deliveryId":1}}}`)

		event, err := models.DecodeEvent(raw)
		Expect(err).ToNot(HaveOccurred())

		payload := event.Payload.(*models.GenericNotificationEvent)
		Expect(payload.Type).To(Equal(models.NotificationTypeDeliveryUpdate))
		Expect(payload.Title).To(Equal("Heads up"))
		Expect(payload.Data.DeliveryID).To(Equal(1))
	})

	It("rejects unknown event types with the sentinel error", func() {
		raw := []byte(`{"event":"telepathy","data":{}}`)

		_, err := models.DecodeEvent(raw)
		Expect(err).To(MatchError(models.ErrUnknownEventType))
	})

	It("rejects envelopes that are not JSON", func() {
		_, err := models.DecodeEvent([]byte("not json"))
		Expect(err).To(HaveOccurred())
		Expect(err).ToNot(MatchError(models.ErrUnknownEventType))
	})
})

var _ = Describe("Notification", func() {

	Context("NavigationTarget", func() {
		It("prefers the delivery over the trip and the action URL", func() {
			n := models.Notification{
				Data:      models.NotificationData{DeliveryID: 3, TripID: 8},
				ActionURL: "/elsewhere",
			}
			Expect(n.NavigationTarget()).To(Equal("/deliveries/3"))
		})

		It("falls back to the trip", func() {
			n := models.Notification{
				Data:      models.NotificationData{TripID: 8},
				ActionURL: "/elsewhere",
			}
			Expect(n.NavigationTarget()).To(Equal("/trips/8"))
		})

		It("falls back to the action URL", func() {
			n := models.Notification{ActionURL: "/elsewhere"}
			Expect(n.NavigationTarget()).To(Equal("/elsewhere"))
		})

		It("returns empty when nothing points anywhere", func() {
			Expect(models.Notification{}.NavigationTarget()).To(BeEmpty())
		})
	})
})
