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

package cache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/giftakari/cargobuddy-frontend/pkg/metrics"
	"github.com/giftakari/cargobuddy-frontend/pkg/models"
)

// ErrMutationInFlight is returned when an optimistic mutation targets an
// entry already under an outstanding unconfirmed mutation. The caller
// fails fast, it is never queued.
var ErrMutationInFlight = errors.New("entry has an optimistic mutation in flight")

// ErrPreconditionFailed is returned when the cached state contradicts a
// mutation's preconditions before anything is patched.
var ErrPreconditionFailed = errors.New("optimistic mutation precondition failed")

// Target names one entry an optimistic mutation will touch.
type Target struct {
	Kind Kind
	Key  Key
}

// Mutation is one optimistic multi-entity transition: the cache reflects
// the end state immediately via Patches, then Call confirms it with the
// server. On rejection every target is restored to its snapshot.
type Mutation struct {
	Name    string
	Targets []Target
	Patches []Effect
	Call    func(ctx context.Context) (any, error)
}

// entrySnapshot captures one entry's exact state for rollback.
type entrySnapshot struct {
	existed    bool
	payload    any
	hasPayload bool
	status     Status
	lastErr    error
}

// Coordinator serializes optimistic mutations per target entry.
type Coordinator struct {
	store  *Store
	mu     sync.Mutex
	locked map[EntryKey]struct{}
	logger *zap.SugaredLogger
}

// NewCoordinator creates a Coordinator over the store.
func NewCoordinator(store *Store, logger *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		store:  store,
		locked: make(map[EntryKey]struct{}),
		logger: logger,
	}
}

// Run executes one optimistic mutation: lock targets, snapshot, patch,
// confirm with the server. Success discards the snapshot; failure
// restores it exactly and returns the server error.
func (c *Coordinator) Run(ctx context.Context, m Mutation) (any, error) {
	keys := make([]EntryKey, 0, len(m.Targets))
	for _, t := range m.Targets {
		keys = append(keys, EntryKey{Kind: t.Kind, Key: t.Key})
	}

	if err := c.lock(keys); err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}
	defer c.unlock(keys)

	snapshots, err := c.snapshot(keys)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to snapshot cache entries: %w", m.Name, err)
	}

	for _, patch := range m.Patches {
		patch.apply(c.store)
	}

	result, err := m.Call(ctx)
	if err != nil {
		c.restore(snapshots)
		metrics.IncMutationRollbacks(m.Name)
		c.logger.Infof("rolled back optimistic mutation %s: %v", m.Name, err)
		return nil, err
	}

	return result, nil
}

// lock acquires all target keys atomically; any conflict releases nothing
// and fails fast.
func (c *Coordinator) lock(keys []EntryKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ek := range keys {
		if _, taken := c.locked[ek]; taken {
			return fmt.Errorf("%w: %s/%s", ErrMutationInFlight, ek.Kind, ek.Key)
		}
	}
	for _, ek := range keys {
		c.locked[ek] = struct{}{}
	}
	return nil
}

func (c *Coordinator) unlock(keys []EntryKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ek := range keys {
		delete(c.locked, ek)
	}
}

// snapshot deep-copies the exact state of every target entry.
func (c *Coordinator) snapshot(keys []EntryKey) (map[EntryKey]entrySnapshot, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	snapshots := make(map[EntryKey]entrySnapshot, len(keys))
	for _, ek := range keys {
		e, ok := c.store.entries[ek]
		if !ok {
			snapshots[ek] = entrySnapshot{existed: false}
			continue
		}
		payloadCopy, err := deepCopyPayload(e.payload)
		if err != nil {
			return nil, err
		}
		snapshots[ek] = entrySnapshot{
			existed:    true,
			payload:    payloadCopy,
			hasPayload: e.hasPayload,
			status:     e.status,
			lastErr:    e.lastErr,
		}
	}
	return snapshots, nil
}

// restore puts every target entry back into its snapshotted state.
func (c *Coordinator) restore(snapshots map[EntryKey]entrySnapshot) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for ek, snap := range snapshots {
		if !snap.existed {
			delete(c.store.entries, ek)
			continue
		}
		e, ok := c.store.entries[ek]
		if !ok {
			e = &entry{}
			c.store.entries[ek] = e
		}
		e.payload = snap.payload
		e.hasPayload = snap.hasPayload
		e.status = snap.status
		e.lastErr = snap.lastErr
	}
}

func deepCopyPayload(src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	dst := reflect.New(reflect.TypeOf(src))
	if err := deepcopy.Copy(dst.Interface(), src); err != nil {
		return nil, err
	}
	return dst.Elem().Interface(), nil
}

// BidsForDeliveryKey is the cache key of the bid list filtered to one
// delivery, matching the key the client uses for that query.
func BidsForDeliveryKey(deliveryID int) Key {
	return QueryKey(map[string]string{"delivery": strconv.Itoa(deliveryID)})
}

// AcceptBid optimistically accepts one bid on a delivery: the cached
// delivery flips to assigned and paid, the target bid to accepted, and
// every other still-pending bid in the same list to rejected, all before
// the server confirms. Preconditions are checked against the cache: a
// cached delivery must be pending and a cached target bid must be
// pending.
func (c *Coordinator) AcceptBid(ctx context.Context, deliveryID int, bidID int, call func(ctx context.Context) (any, error)) (any, error) {
	deliveryKey := IDKey(deliveryID)
	bidsKey := BidsForDeliveryKey(deliveryID)

	if payload, _, ok := c.store.Peek(KindDelivery, deliveryKey); ok {
		if delivery, isDelivery := payload.(models.Delivery); isDelivery && delivery.Status != models.DeliveryStatusPending {
			return nil, fmt.Errorf("%w: delivery %d is %s, not pending", ErrPreconditionFailed, deliveryID, delivery.Status)
		}
	}
	if payload, _, ok := c.store.Peek(KindBid, bidsKey); ok {
		if bids, isBids := payload.([]models.Bid); isBids {
			for _, bid := range bids {
				if bid.ID == bidID && bid.Status != models.BidStatusPending {
					return nil, fmt.Errorf("%w: bid %d is %s, not pending", ErrPreconditionFailed, bidID, bid.Status)
				}
			}
		}
	}

	m := Mutation{
		Name: "accept_bid",
		Targets: []Target{
			{Kind: KindDelivery, Key: deliveryKey},
			{Kind: KindBid, Key: bidsKey},
		},
		Patches: []Effect{
			PatchEntry(KindDelivery, deliveryKey, func(payload any) any {
				delivery, ok := payload.(models.Delivery)
				if !ok {
					return payload
				}
				delivery.Status = models.DeliveryStatusAssigned
				delivery.PaymentStatus = models.PaymentStatusPaid
				return delivery
			}),
			PatchEntry(KindBid, bidsKey, func(payload any) any {
				bids, ok := payload.([]models.Bid)
				if !ok {
					return payload
				}
				// Callers may still hold the slice a previous read
				// returned; patch a copy so their view stays untouched.
				patched := make([]models.Bid, len(bids))
				copy(patched, bids)
				for i := range patched {
					if patched[i].ID == bidID {
						patched[i].Status = models.BidStatusAccepted
					} else if patched[i].Status == models.BidStatusPending {
						patched[i].Status = models.BidStatusRejected
					}
				}
				return patched
			}),
		},
		Call: call,
	}

	return c.Run(ctx, m)
}
