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

package logger

// Component names used with For().
const (
	// ComponentCore is the name of the main binary
	ComponentCore = "core"

	// ComponentCache is the name of the resource cache
	ComponentCache = "cache"

	// ComponentRealtime is the name of the realtime event channel
	ComponentRealtime = "realtime"

	// ComponentReconciler is the name of the event-to-cache reconciler
	ComponentReconciler = "reconciler"

	// ComponentNotifications is the name of the notification queue
	ComponentNotifications = "notifications"

	// ComponentSession is the name of the session manager
	ComponentSession = "session"

	// ComponentAPIClient is the name of the HTTP API client
	ComponentAPIClient = "apiclient"
)
