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

// cargobuddy-watch logs in, connects the realtime channel and prints
// notifications as the reconciler produces them. It is the headless
// counterpart of the browser client and exercises the full pipeline:
// API client, cache, channel, reconciler and notification queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/giftakari/cargobuddy-frontend/pkg/cache"
	"github.com/giftakari/cargobuddy-frontend/pkg/client"
	"github.com/giftakari/cargobuddy-frontend/pkg/config"
	"github.com/giftakari/cargobuddy-frontend/pkg/logger"
	"github.com/giftakari/cargobuddy-frontend/pkg/models"
	"github.com/giftakari/cargobuddy-frontend/pkg/notifications"
	"github.com/giftakari/cargobuddy-frontend/pkg/realtime"
	"github.com/giftakari/cargobuddy-frontend/pkg/reconciler"
	"github.com/giftakari/cargobuddy-frontend/pkg/session"
	"github.com/giftakari/cargobuddy-frontend/pkg/watchdog"
)

func main() {
	logger.Initialize()
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.For(logger.ComponentCore)

	configPath := flag.String("config", "", "path to the YAML config file")
	email := flag.String("email", os.Getenv("CARGOBUDDY_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("CARGOBUDDY_PASSWORD"), "account password")
	metricsAddr := flag.String("metrics-addr", "", "listen address for /metrics, empty disables")
	flag.Parse()

	log.Info("Starting cargobuddy-watch...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, log)
	}

	dog := watchdog.NewWatchdog(ctx, time.NewTicker(10*time.Second), false, logger.For("watchdog"))
	go dog.Start()

	store := cache.NewStore(logger.For(logger.ComponentCache))
	coordinator := cache.NewCoordinator(store, logger.For(logger.ComponentCache))
	sessions := session.NewManager(logger.For(logger.ComponentSession))
	center := notifications.NewCenter(cfg.Notifications.AutoExpiry, nil, logger.For(logger.ComponentNotifications))
	api := client.New(cfg.API, store, coordinator, sessions, center, logger.For(logger.ComponentAPIClient))

	// Prefer an existing session cookie; fall back to credentials. The
	// session manager is the authority here: CheckAuth only establishes
	// a session when the backend returns both the flag and a user, so a
	// bare authenticated flag must not skip the login fallback.
	if _, err := api.CheckAuth(ctx); err != nil {
		log.Warnf("Auth check failed: %v", err)
	}
	if !sessions.Authenticated() {
		if *email == "" || *password == "" {
			log.Error("No session and no credentials given, set -email and -password")
			os.Exit(1)
		}
		if _, err := api.Login(ctx, models.LoginRequest{Email: *email, Password: *password}); err != nil {
			log.Errorf("Login failed: %v", err)
			os.Exit(1)
		}
	}
	current := sessions.Current()
	log.Infof("Logged in as %s %s (%s)", current.User.FirstName, current.User.LastName, current.User.UserType)

	channel := realtime.NewChannel(realtime.Options{
		URL:                  cfg.Socket.URL,
		MaxReconnectAttempts: cfg.Socket.MaxReconnectAttempts,
		EventBufferSize:      cfg.Socket.EventBufferSize,
		Dialer:               realtime.NewWebsocketDialer(cfg.Socket.HandshakeTimeout),
		Authenticated:        sessions.Authenticated,
		Header:               api.CookieHeader,
		Dog:                  dog,
		Logger:               logger.For(logger.ComponentRealtime),
	})
	if err := channel.Connect(ctx); err != nil {
		log.Errorf("Failed to connect realtime channel: %v", err)
		os.Exit(1)
	}
	defer channel.Disconnect()

	center.OnDisplayChange(func(displayed *models.Notification) {
		if displayed == nil {
			return
		}
		fmt.Printf("[%s] %s: %s\n", displayed.Type, displayed.Title, displayed.Message)
	})

	rec := reconciler.New(channel.Events(), store, center, dog, logger.For(logger.ComponentReconciler))
	go rec.Run(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Infof("Received %s, shutting down", sig)
	cancel()
}

func serveMetrics(addr string, log *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("Metrics server stopped: %v", err)
	}
}
