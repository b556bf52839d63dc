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

// Package cache holds the client's tag-addressed view of server resources.
//
// Entries are keyed by (Kind, Key) and carry the tags they were fetched
// under. Tag invalidation marks matching entries stale; entries with
// subscribers refetch in the background, the rest refetch lazily on the
// next Request. All entry state funnels through the store's mutex, the
// only sanctioned writers are successful fetches, Patch, and Clear.
package cache

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/giftakari/cargobuddy-frontend/pkg/metrics"
)

// Kind is the resource family an entry belongs to.
type Kind string

const (
	KindUser       Kind = "User"
	KindDelivery   Kind = "Delivery"
	KindTrip       Kind = "Trip"
	KindBid        Kind = "Bid"
	KindChat       Kind = "Chat"
	KindDashboard  Kind = "Dashboard"
	KindMatching   Kind = "Matching"
	KindInvitation Kind = "Invitation"
)

var knownKinds = map[Kind]struct{}{
	KindUser:       {},
	KindDelivery:   {},
	KindTrip:       {},
	KindBid:        {},
	KindChat:       {},
	KindDashboard:  {},
	KindMatching:   {},
	KindInvitation: {},
}

// Key addresses one entry within a kind: a numeric id, a canonicalized
// query tuple, or ListKey for the unparameterized list.
type Key string

// ListKey addresses the unparameterized list of a kind.
const ListKey Key = "list"

// IDKey addresses a single resource by id.
func IDKey(id int) Key {
	return Key(strconv.Itoa(id))
}

// QueryKey canonicalizes query parameters into a stable key, so the same
// filter set always addresses the same entry regardless of argument order.
func QueryKey(params map[string]string) Key {
	if len(params) == 0 {
		return ListKey
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return Key(strings.Join(pairs, "&"))
}

// Tag links entries to the invalidation graph. ID zero means the tag
// covers the whole kind.
type Tag struct {
	Kind Kind
	ID   int
}

// KindTag covers every entry of a kind.
func KindTag(kind Kind) Tag {
	return Tag{Kind: kind}
}

// IDTag covers entries tagged with one specific resource id.
func IDTag(kind Kind, id int) Tag {
	return Tag{Kind: kind, ID: id}
}

func (t Tag) String() string {
	if t.ID == 0 {
		return string(t.Kind)
	}
	return string(t.Kind) + ":" + strconv.Itoa(t.ID)
}

// covers reports whether an invalidation of t hits an entry tagged other.
// A kind-level tag covers all id tags of the same kind.
func (t Tag) covers(other Tag) bool {
	if t.Kind != other.Kind {
		return false
	}
	return t.ID == 0 || t.ID == other.ID
}

// Status is the fetch state of an entry.
type Status int

const (
	// StatusFresh means the payload reflects the last server response.
	StatusFresh Status = iota
	// StatusLoading means a fetch is in flight; a previous payload may
	// still be present.
	StatusLoading
	// StatusStale means the entry was invalidated and awaits a refetch.
	StatusStale
	// StatusError means the last fetch failed; the previous payload, if
	// any, is retained.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusLoading:
		return "loading"
	case StatusStale:
		return "stale"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Fetcher loads an entry's payload from the server. The store retains it
// for background refetches after invalidation.
type Fetcher func(ctx context.Context) (any, error)

// EntryKey identifies one cache entry.
type EntryKey struct {
	Kind Kind
	Key  Key
}

type entry struct {
	payload     any
	hasPayload  bool
	status      Status
	tags        []Tag
	fetcher     Fetcher
	subscribers int
	lastErr     error
}

type inflightFetch struct {
	done   chan struct{}
	result any
	err    error
}

// Store is the resource cache.
type Store struct {
	mu       sync.Mutex
	entries  map[EntryKey]*entry
	inflight map[EntryKey]*inflightFetch
	logger   *zap.SugaredLogger
}

// NewStore creates an empty Store.
func NewStore(logger *zap.SugaredLogger) *Store {
	return &Store{
		entries:  make(map[EntryKey]*entry),
		inflight: make(map[EntryKey]*inflightFetch),
		logger:   logger,
	}
}

// Request returns the entry's payload, fetching it if the entry is
// missing, stale or errored. Concurrent callers for the same entry share
// a single in-flight fetch and all receive its result. A failed fetch
// keeps the previous payload in the store (see Peek) and returns the
// fetch error.
func (s *Store) Request(ctx context.Context, kind Kind, key Key, fetcher Fetcher, tags ...Tag) (any, error) {
	ek := EntryKey{Kind: kind, Key: key}

	s.mu.Lock()
	if e, ok := s.entries[ek]; ok && e.status == StatusFresh {
		payload := e.payload
		s.mu.Unlock()
		metrics.ObserveCacheLookup(string(kind), "hit")
		return payload, nil
	}

	if fl, ok := s.inflight[ek]; ok {
		s.mu.Unlock()
		metrics.ObserveCacheFetch(string(kind), "deduplicated")
		select {
		case <-fl.done:
			return fl.result, fl.err
		case <-ctx.Done():
			// The shared fetch keeps running for the other callers.
			return nil, ctx.Err()
		}
	}

	e, ok := s.entries[ek]
	if !ok {
		e = &entry{}
		s.entries[ek] = e
	}
	if e.hasPayload {
		metrics.ObserveCacheLookup(string(kind), "stale")
	} else {
		metrics.ObserveCacheLookup(string(kind), "miss")
	}
	e.status = StatusLoading
	e.tags = tags
	e.fetcher = fetcher

	fl := &inflightFetch{done: make(chan struct{})}
	s.inflight[ek] = fl
	s.mu.Unlock()

	result, err := fetcher(ctx)

	s.mu.Lock()
	delete(s.inflight, ek)
	// Re-lookup: Clear may have dropped the entry while the fetch ran.
	if cur, ok := s.entries[ek]; ok {
		if err != nil {
			cur.status = StatusError
			cur.lastErr = err
		} else {
			cur.payload = result
			cur.hasPayload = true
			cur.status = StatusFresh
			cur.lastErr = nil
		}
	}
	s.mu.Unlock()

	if err != nil {
		metrics.ObserveCacheFetch(string(kind), "error")
		metrics.IncErrorCount(metrics.ComponentCache)
	} else {
		metrics.ObserveCacheFetch(string(kind), "success")
	}

	fl.result = result
	fl.err = err
	close(fl.done)

	return result, err
}

// Peek returns the entry's current payload and status without fetching.
// The payload may be stale; ok is false when the entry has never held one.
func (s *Store) Peek(kind Kind, key Key) (payload any, status Status, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.entries[EntryKey{Kind: kind, Key: key}]
	if !found {
		return nil, StatusStale, false
	}
	return e.payload, e.status, e.hasPayload
}

// LastError returns the error of the entry's last failed fetch, if any.
func (s *Store) LastError(kind Kind, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[EntryKey{Kind: kind, Key: key}]; ok {
		return e.lastErr
	}
	return nil
}

// Invalidate marks every entry covered by one of the tags stale. Entries
// with subscribers refetch immediately in the background; unsubscribed
// entries refetch lazily on their next Request.
func (s *Store) Invalidate(tags ...Tag) {
	type refetchJob struct {
		ek      EntryKey
		fetcher Fetcher
		tags    []Tag
	}
	var jobs []refetchJob

	s.mu.Lock()
	for _, tag := range tags {
		if _, ok := knownKinds[tag.Kind]; !ok {
			s.logger.DPanicf("invalidation with unknown tag kind %q", tag.Kind)
			continue
		}
		for ek, e := range s.entries {
			if !tagsCovered(tag, e.tags) {
				continue
			}
			if e.status == StatusLoading {
				// A fetch is already in flight; its result supersedes
				// the invalidation.
				continue
			}
			e.status = StatusStale
			if e.subscribers > 0 && e.fetcher != nil {
				metrics.ObserveInvalidation(tag.String(), "eager")
				jobs = append(jobs, refetchJob{ek: ek, fetcher: e.fetcher, tags: e.tags})
			} else {
				metrics.ObserveInvalidation(tag.String(), "lazy")
			}
		}
	}
	s.mu.Unlock()

	for _, job := range jobs {
		go func(job refetchJob) {
			if _, err := s.Request(context.Background(), job.ek.Kind, job.ek.Key, job.fetcher, job.tags...); err != nil {
				s.logger.Warnf("background refetch of %s/%s failed: %v", job.ek.Kind, job.ek.Key, err)
			}
		}(job)
	}
}

func tagsCovered(tag Tag, entryTags []Tag) bool {
	for _, et := range entryTags {
		if tag.covers(et) {
			return true
		}
	}
	return false
}

// Patch applies an in-place transform to a cached payload without a
// network round trip. Only the optimistic mutation coordinator and the
// reconciler call this. Returns false when the entry holds no payload.
func (s *Store) Patch(kind Kind, key Key, updater func(any) any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[EntryKey{Kind: kind, Key: key}]
	if !ok || !e.hasPayload {
		return false
	}
	e.payload = updater(e.payload)
	return true
}

// Subscribe registers interest in an entry; invalidations of subscribed
// entries trigger an immediate background refetch.
func (s *Store) Subscribe(kind Kind, key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ek := EntryKey{Kind: kind, Key: key}
	e, ok := s.entries[ek]
	if !ok {
		e = &entry{status: StatusStale}
		s.entries[ek] = e
	}
	e.subscribers++
}

// Unsubscribe drops one subscription. It never cancels a shared in-flight
// fetch, other callers may be waiting on it.
func (s *Store) Unsubscribe(kind Kind, key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[EntryKey{Kind: kind, Key: key}]; ok && e.subscribers > 0 {
		e.subscribers--
	}
}

// Subscribers returns the entry's current subscription count.
func (s *Store) Subscribers(kind Kind, key Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[EntryKey{Kind: kind, Key: key}]; ok {
		return e.subscribers
	}
	return 0
}

// Clear drops every entry. Used on logout; in-flight fetches complete
// into the void.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[EntryKey]*entry)
}

// Effect is a cache side effect applied after a successful mutation.
type Effect interface {
	apply(s *Store)
}

type invalidateEffect struct {
	tags []Tag
}

func (e invalidateEffect) apply(s *Store) {
	s.Invalidate(e.tags...)
}

// InvalidateTags is an Effect marking the given tags stale.
func InvalidateTags(tags ...Tag) Effect {
	return invalidateEffect{tags: tags}
}

type patchEffect struct {
	kind    Kind
	key     Key
	updater func(any) any
}

func (e patchEffect) apply(s *Store) {
	s.Patch(e.kind, e.key, e.updater)
}

// PatchEntry is an Effect transforming one cached payload in place.
func PatchEntry(kind Kind, key Key, updater func(any) any) Effect {
	return patchEffect{kind: kind, key: key, updater: updater}
}

// Mutate runs a server write and, on success, applies the side effects in
// order. On failure nothing is applied and the server error is returned.
func (s *Store) Mutate(ctx context.Context, call func(ctx context.Context) (any, error), effects ...Effect) (any, error) {
	result, err := call(ctx)
	if err != nil {
		metrics.IncErrorCount(metrics.ComponentCache)
		return nil, err
	}
	for _, effect := range effects {
		effect.apply(s)
	}
	return result, nil
}
