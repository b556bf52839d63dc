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

// Package notifications keeps the in-app notification queue: a
// newest-first list, an unread counter, and a display slot showing at
// most one notification at a time. Unread notifications are promoted
// into the slot in enqueue order. A displayed notification not acted on
// within the expiry window is dismissed automatically.
package notifications

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/giftakari/cargobuddy-frontend/pkg/metrics"
	"github.com/giftakari/cargobuddy-frontend/pkg/models"
)

// Notifier mirrors notifications to a platform surface (desktop
// notifications and the like). Failures never affect the queue.
type Notifier interface {
	Notify(n models.Notification) error
}

// Listener observes the display slot. It receives the newly displayed
// notification, or nil when the slot empties.
type Listener func(displayed *models.Notification)

// Center is the notification queue.
type Center struct {
	mu        sync.Mutex
	list      []models.Notification // newest first
	unread    int
	displayed string // id in the display slot, empty if none
	expiry    time.Duration
	timer     *time.Timer
	notifier  Notifier
	listeners []Listener
	logger    *zap.SugaredLogger
}

// NewCenter creates an empty Center. expiry is how long a displayed
// notification lives without user action.
func NewCenter(expiry time.Duration, notifier Notifier, logger *zap.SugaredLogger) *Center {
	if expiry <= 0 {
		expiry = 6 * time.Second
	}
	return &Center{
		expiry:   expiry,
		notifier: notifier,
		logger:   logger,
	}
}

// OnDisplayChange registers a listener for display slot changes.
func (c *Center) OnDisplayChange(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Enqueue adds a notification to the front of the list and promotes it
// if the display slot is free.
func (c *Center) Enqueue(n models.Notification) {
	c.mu.Lock()
	c.list = append([]models.Notification{n}, c.list...)
	if !n.Read {
		c.unread++
	}
	metrics.ObserveNotification(string(n.Type))
	metrics.SetUnreadNotifications(c.unread)

	var change *displayChange
	if c.displayed == "" {
		change = c.promoteLocked()
	}
	c.mu.Unlock()

	if c.notifier != nil {
		if err := c.notifier.Notify(n); err != nil {
			c.logger.Warnf("platform notification failed: %v", err)
		}
	}
	c.fire(change)
}

// DismissDisplayed marks the displayed notification read, clears the
// slot, and promotes the next unread notification.
func (c *Center) DismissDisplayed() {
	c.mu.Lock()
	change := c.dismissLocked()
	c.mu.Unlock()
	c.fire(change)
}

// ClickDisplayed acts like dismiss and additionally returns the
// navigation target of the clicked notification. A delivery reference
// wins over a trip reference, which wins over the action URL.
func (c *Center) ClickDisplayed() (target string, ok bool) {
	c.mu.Lock()
	if n := c.findLocked(c.displayed); n != nil {
		target = n.NavigationTarget()
		ok = true
	}
	change := c.dismissLocked()
	c.mu.Unlock()
	c.fire(change)
	return target, ok
}

// RemoveDisplayed deletes the displayed notification from the list
// entirely, adjusts the unread counter if it was unread, and promotes
// the next.
func (c *Center) RemoveDisplayed() {
	c.mu.Lock()
	id := c.displayed
	if id == "" {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	c.displayed = ""
	for i := range c.list {
		if c.list[i].ID == id {
			if !c.list[i].Read {
				c.unread--
			}
			c.list = append(c.list[:i], c.list[i+1:]...)
			break
		}
	}
	metrics.SetUnreadNotifications(c.unread)
	change := c.promoteLocked()
	c.mu.Unlock()
	c.fire(change)
}

// MarkRead marks one notification read. Marking the displayed
// notification behaves like a dismiss.
func (c *Center) MarkRead(id string) {
	c.mu.Lock()
	var change *displayChange
	if id == c.displayed {
		change = c.dismissLocked()
	} else {
		for i := range c.list {
			if c.list[i].ID == id {
				if !c.list[i].Read {
					c.list[i].Read = true
					c.unread--
				}
				break
			}
		}
		metrics.SetUnreadNotifications(c.unread)
	}
	c.mu.Unlock()
	c.fire(change)
}

// MarkAllRead marks every notification read and empties the display slot.
func (c *Center) MarkAllRead() {
	c.mu.Lock()
	for i := range c.list {
		c.list[i].Read = true
	}
	c.unread = 0
	c.stopTimerLocked()
	var change *displayChange
	if c.displayed != "" {
		c.displayed = ""
		change = &displayChange{}
	}
	metrics.SetUnreadNotifications(c.unread)
	c.mu.Unlock()
	c.fire(change)
}

// Clear drops everything. Used on logout.
func (c *Center) Clear() {
	c.mu.Lock()
	c.stopTimerLocked()
	hadDisplay := c.displayed != ""
	c.list = nil
	c.unread = 0
	c.displayed = ""
	metrics.SetUnreadNotifications(0)
	var change *displayChange
	if hadDisplay {
		change = &displayChange{}
	}
	c.mu.Unlock()
	c.fire(change)
}

// Notifications returns a copy of the backing list, newest first.
func (c *Center) Notifications() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Notification, len(c.list))
	copy(out, c.list)
	return out
}

// UnreadCount returns the incrementally maintained unread counter. It is
// always equal to the number of read=false entries in the list.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Displayed returns the notification currently in the display slot.
func (c *Center) Displayed() (models.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := c.findLocked(c.displayed); n != nil {
		return *n, true
	}
	return models.Notification{}, false
}

// displayChange carries a slot update out of the lock so listeners run
// unlocked. A nil notification means the slot emptied.
type displayChange struct {
	notification *models.Notification
}

func (c *Center) fire(change *displayChange) {
	if change == nil {
		return
	}
	c.mu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, l := range listeners {
		l(change.notification)
	}
}

// dismissLocked marks the displayed notification read and promotes the
// next unread one. Auto-expiry funnels through here too.
func (c *Center) dismissLocked() *displayChange {
	if c.displayed == "" {
		return nil
	}
	c.stopTimerLocked()
	if n := c.findLocked(c.displayed); n != nil && !n.Read {
		n.Read = true
		c.unread--
	}
	c.displayed = ""
	metrics.SetUnreadNotifications(c.unread)
	if change := c.promoteLocked(); change != nil {
		return change
	}
	return &displayChange{}
}

// promoteLocked moves the oldest unread notification into the display
// slot and arms the expiry timer.
func (c *Center) promoteLocked() *displayChange {
	// The list is newest first, so the oldest unread sits at the back.
	for i := len(c.list) - 1; i >= 0; i-- {
		if c.list[i].Read {
			continue
		}
		n := c.list[i]
		c.displayed = n.ID
		id := n.ID
		c.timer = time.AfterFunc(c.expiry, func() {
			c.expire(id)
		})
		return &displayChange{notification: &n}
	}
	return nil
}

// expire is the timer callback: dismiss, but only if the same
// notification still occupies the slot.
func (c *Center) expire(id string) {
	c.mu.Lock()
	if c.displayed != id {
		c.mu.Unlock()
		return
	}
	change := c.dismissLocked()
	c.mu.Unlock()
	c.fire(change)
}

func (c *Center) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Center) findLocked(id string) *models.Notification {
	if id == "" {
		return nil
	}
	for i := range c.list {
		if c.list[i].ID == id {
			return &c.list[i]
		}
	}
	return nil
}
