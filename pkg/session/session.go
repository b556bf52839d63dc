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

// Package session holds the authenticated user and their permissions.
// The client's auth operations replace the session wholesale; everything
// else only reads it.
package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/giftakari/cargobuddy-frontend/pkg/models"
)

// Capability names one permission flag.
type Capability string

const (
	CanCreateDeliveries Capability = "canCreateDeliveries"
	CanCreateTrips      Capability = "canCreateTrips"
	CanBid              Capability = "canBid"
	CanSendPackages     Capability = "canSendPackages"
)

// Session is the current auth state.
type Session struct {
	User          *models.User
	Authenticated bool
	Permissions   models.Permissions
}

// Manager guards the session behind a read-write lock.
type Manager struct {
	mu      sync.RWMutex
	session Session
	logger  *zap.SugaredLogger
}

// NewManager creates a Manager with an anonymous session.
func NewManager(logger *zap.SugaredLogger) *Manager {
	return &Manager{logger: logger}
}

// Set replaces the session wholesale after login, register or a
// successful auth check.
func (m *Manager) Set(user models.User, permissions models.Permissions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{
		User:          &user,
		Authenticated: true,
		Permissions:   permissions,
	}
	m.logger.Infof("session established for user %d (%s)", user.ID, user.Email)
}

// Clear drops the session on logout or a failed auth check.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	m.logger.Info("session cleared")
}

// Current returns a copy of the session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session
	if s.User != nil {
		user := *s.User
		s.User = &user
	}
	return s
}

// Authenticated reports whether a user is logged in.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Authenticated
}

// Can reports whether the session allows a capability. An anonymous
// session allows nothing.
func (m *Manager) Can(capability Capability) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.session.Authenticated {
		return false
	}
	switch capability {
	case CanCreateDeliveries:
		return m.session.Permissions.CanCreateDeliveries
	case CanCreateTrips:
		return m.session.Permissions.CanCreateTrips
	case CanBid:
		return m.session.Permissions.CanBid
	case CanSendPackages:
		return m.session.Permissions.CanSendPackages
	default:
		m.logger.DPanicf("unknown capability %q", capability)
		return false
	}
}

// ApplyProfile patches the identity fields after a profile update
// without touching permissions or auth state.
func (m *Manager) ApplyProfile(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.session.Authenticated || m.session.User == nil {
		return
	}
	m.session.User.FirstName = user.FirstName
	m.session.User.LastName = user.LastName
	m.session.User.Phone = user.Phone
	m.session.User.VehicleType = user.VehicleType
	m.session.User.LicenseNumber = user.LicenseNumber
	m.session.User.UpdatedAt = user.UpdatedAt
}
