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

// Package watchdog supervises the client's long running goroutines.
//
// Create a Watchdog with NewWatchdog and start it with Start. Each loop
// registers itself with RegisterHeartbeat and reports its status regularly
// via ReportHeartbeatStatus. A heartbeat that goes stale or reports an
// error panics the program, surfacing stuck loops instead of silently
// serving stale state.
//
// Loops registered with onlyIfOnline only fail while the realtime channel
// is online. While offline the event pipeline is legitimately idle, so a
// missing heartbeat there is not a fault.
package watchdog

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeartbeatStatus is the status of a heartbeat
type HeartbeatStatus int

const (
	// HEARTBEAT_STATUS_OK is the status of a healthy heartbeat
	HEARTBEAT_STATUS_OK HeartbeatStatus = iota
	// HEARTBEAT_STATUS_WARNING is the status of a heartbeat with a warning, given enough warnings, it will panic the program if configured in RegisterHeartbeat
	HEARTBEAT_STATUS_WARNING
	// HEARTBEAT_STATUS_ERROR is the status of a heartbeat with an error, it will panic the program
	HEARTBEAT_STATUS_ERROR
)

// Heartbeat tracks a single registered goroutine.
type Heartbeat struct {
	uniqueIdentifier     uuid.UUID
	lastReportedStatus   atomic.Int32
	lastHeartbeatTime    atomic.Int64
	file                 string
	line                 int
	warningCount         atomic.Uint32
	warningsUntilFailure uint64
	timeout              uint64
	onlyIfOnline         bool
	heartbeatsReceived   atomic.Uint64
}

// Watchdog is a simple watchdog for goroutines
type Watchdog struct {
	registeredHeartbeats      map[string]*Heartbeat
	registeredHeartbeatsMutex sync.Mutex
	badHeartbeatChan          chan uuid.UUID
	online                    atomic.Bool
	ctx                       context.Context
	ticker                    *time.Ticker
	watchdogID                uuid.UUID
	warningsAreErrors         atomic.Bool
	logger                    *zap.SugaredLogger
}

// NewWatchdog creates a new Watchdog
func NewWatchdog(ctx context.Context, ticker *time.Ticker, warningsAreErrors bool, logger *zap.SugaredLogger) *Watchdog {
	w := Watchdog{
		registeredHeartbeats:      make(map[string]*Heartbeat),
		registeredHeartbeatsMutex: sync.Mutex{},
		// badHeartbeatChan is buffered to avoid blocking the watchdog.
		// This might be the case if the watchdog is not started yet and a goroutine is sending a bad heartbeat
		badHeartbeatChan:  make(chan uuid.UUID, 100),
		online:            atomic.Bool{},
		ctx:               ctx,
		ticker:            ticker,
		watchdogID:        uuid.New(),
		warningsAreErrors: atomic.Bool{},
		logger:            logger,
	}
	if warningsAreErrors {
		w.warningsAreErrors.Store(true)
	}
	return &w
}

// Start synchronously starts the watchdog
func (s *Watchdog) Start() {
	for {
		select {
		case uniqueIdentifier := <-s.badHeartbeatChan:
			{
				name := s.getHeartbeatNameByUUID(uniqueIdentifier)
				panic(fmt.Sprintf("Heartbeat errored: [%s] %s (%s)", s.watchdogID, name, uniqueIdentifier))
			}
		case <-s.ticker.C:
			{
				now := time.Now()
				s.logger.Debugf("Checking heartbeats: [%s] at %s", s.watchdogID, now)
				s.registeredHeartbeatsMutex.Lock()

				var overdueName string
				var overdueHb *Heartbeat
				var overdueBy int64

				for name, hb := range s.registeredHeartbeats {
					lastHeartbeat := now.UTC().Unix() - hb.lastHeartbeatTime.Load()
					if lastHeartbeat < 0 {
						s.logger.Warnf("Time went backwards: [%s] ", s.watchdogID)
					}
					secondsOverdue := lastHeartbeat - int64(hb.timeout)
					// timeout = 0 disables this check
					if secondsOverdue > 0 && hb.timeout != 0 {
						if !hb.onlyIfOnline || s.online.Load() {
							overdueName = name
							overdueHb = hb
							overdueBy = secondsOverdue
							// Remove from the map so the panic fires only once
							delete(s.registeredHeartbeats, name)
							break
						}
						s.logger.Infof("Heartbeat: [%s] %s (%s) would fail, but the channel is offline", s.watchdogID, name, hb.uniqueIdentifier)
					}
				}

				// Unlock before any potential panic
				s.registeredHeartbeatsMutex.Unlock()

				if overdueHb != nil {
					panic(fmt.Sprintf("Heartbeat too old: [%s] %s (%s) registered at %s:%d [Lifetime heartbeats: %d] (%d seconds overdue)",
						s.watchdogID, overdueName, overdueHb.uniqueIdentifier,
						overdueHb.file, overdueHb.line,
						overdueHb.heartbeatsReceived.Load(), overdueBy))
				}

				s.logger.Debugf("Heartbeats are ok: [%s] ", s.watchdogID)
			}
		case <-s.ctx.Done():
			{
				s.logger.Infof("Watchdog context done: [%s] ", s.watchdogID)
				return
			}
		}
	}
}

// RegisterHeartbeat registers a new heartbeat
// It returns the unique identifier of the heartbeat
// Keep that identifier to unregister the heartbeat later
func (s *Watchdog) RegisterHeartbeat(name string, warningsUntilFailure uint64, timeout uint64, onlyIfOnline bool) uuid.UUID {
	uniqueIdentifier := uuid.New()
	_, file, line, ok := runtime.Caller(1)

	hb := Heartbeat{
		uniqueIdentifier:     uniqueIdentifier,
		warningsUntilFailure: warningsUntilFailure,
		timeout:              timeout,
		onlyIfOnline:         onlyIfOnline,
	}
	hb.lastHeartbeatTime.Store(time.Now().UTC().Unix())
	if ok {
		hb.file = file
		hb.line = line
	} else {
		s.logger.Warnf("[%s] Unable to get caller file and line for heartbeat %s", s.watchdogID, name)
	}
	s.registeredHeartbeatsMutex.Lock()
	if v, ok := s.registeredHeartbeats[name]; ok {
		s.registeredHeartbeatsMutex.Unlock()
		s.logger.Errorf("[%s] Heartbeat already registered: %s (%s)", s.watchdogID, name, v.uniqueIdentifier)
		panic(fmt.Sprintf("Heartbeat already registered: %s (%s)", name, v.uniqueIdentifier))
	}
	s.registeredHeartbeats[name] = &hb
	s.logger.Infof("[%s] Registered heartbeat %s (%s)", s.watchdogID, name, uniqueIdentifier)
	s.registeredHeartbeatsMutex.Unlock()
	return uniqueIdentifier
}

// UnregisterHeartbeat unregisters a heartbeat
// Call this when the goroutine is doing a normal exit
func (s *Watchdog) UnregisterHeartbeat(uniqueIdentifier uuid.UUID) {
	name := s.getHeartbeatNameByUUID(uniqueIdentifier)
	if name == "" {
		s.logger.Warnf("[%s] Unregister heartbeat called with unknown identifier: %s", s.watchdogID, uniqueIdentifier)
		return
	}

	s.registeredHeartbeatsMutex.Lock()
	delete(s.registeredHeartbeats, name)
	s.registeredHeartbeatsMutex.Unlock()
	s.logger.Infof("[%s] Unregistered heartbeat %s", s.watchdogID, uniqueIdentifier)
}

// ReportHeartbeatStatus reports the status of a heartbeat
// Call this every time the routine is looping (with HEARTBEAT_STATUS_OK), when it's doing something weird (with HEARTBEAT_STATUS_WARNING) or when it's doing nothing (with HEARTBEAT_STATUS_ERROR)
func (s *Watchdog) ReportHeartbeatStatus(uniqueIdentifier uuid.UUID, status HeartbeatStatus) {
	name := s.getHeartbeatNameByUUID(uniqueIdentifier)
	if name == "" {
		s.logger.Warnf("[%s] Report heartbeat called with unknown identifier: %s", s.watchdogID, uniqueIdentifier)
		return
	}

	s.registeredHeartbeatsMutex.Lock()
	hb := s.registeredHeartbeats[name]
	if hb == nil {
		s.registeredHeartbeatsMutex.Unlock()
		s.logger.Warnf("[%s] Report heartbeat called with now invalid name: %s (UUID: %s)", s.watchdogID, name, uniqueIdentifier)
		return
	}

	hb.lastReportedStatus.Store(int32(status))
	hb.lastHeartbeatTime.Store(time.Now().UTC().Unix())
	hb.heartbeatsReceived.Add(1)
	var warnings uint32
	if status == HEARTBEAT_STATUS_WARNING {
		warnings = hb.warningCount.Add(1)
		if s.warningsAreErrors.Load() {
			s.logger.Errorf("[%s] Heartbeat %s (%s) sent a warning (%d/%d) and warnings are errors", s.watchdogID, name, uniqueIdentifier, warnings, hb.warningsUntilFailure)
			s.badHeartbeatChan <- uniqueIdentifier
		}
	} else if status == HEARTBEAT_STATUS_OK {
		hb.warningCount.Store(0)
	}
	// warningsUntilFailure == 0 disables this check
	if warnings >= uint32(hb.warningsUntilFailure) && hb.warningsUntilFailure != 0 && (!hb.onlyIfOnline || s.online.Load()) {
		s.logger.Errorf("[%s] Heartbeat %s (%s) sent too many consecutive warnings (%d/%d)", s.watchdogID, name, uniqueIdentifier, warnings, hb.warningsUntilFailure)
		s.badHeartbeatChan <- uniqueIdentifier
	}
	s.registeredHeartbeatsMutex.Unlock()
	if status == HEARTBEAT_STATUS_ERROR {
		s.logger.Errorf("[%s] Heartbeat %s (%s) reported an error", s.watchdogID, name, uniqueIdentifier)
		s.badHeartbeatChan <- uniqueIdentifier
	}
}

// getHeartbeatNameByUUID returns the name of a heartbeat by its unique identifier
func (s *Watchdog) getHeartbeatNameByUUID(uniqueIdentifier uuid.UUID) string {
	s.registeredHeartbeatsMutex.Lock()
	defer s.registeredHeartbeatsMutex.Unlock()

	for name, v := range s.registeredHeartbeats {
		if v.uniqueIdentifier == uniqueIdentifier {
			return name
		}
	}
	return ""
}

// SetOnline records whether the realtime channel currently has a live
// connection. Heartbeats registered with onlyIfOnline are ignored while
// the channel is offline.
func (s *Watchdog) SetOnline(online bool) {
	s.online.Store(online)
}
