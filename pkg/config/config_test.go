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

package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/giftakari/cargobuddy-frontend/pkg/config"
)

var _ = Describe("Load", func() {

	envVars := []string{
		"CARGOBUDDY_API_URL",
		"CARGOBUDDY_SOCKET_URL",
		"CARGOBUDDY_MAX_RECONNECT_ATTEMPTS",
		"CARGOBUDDY_EVENT_BUFFER_SIZE",
	}

	BeforeEach(func() {
		for _, v := range envVars {
			Expect(os.Unsetenv(v)).To(Succeed())
		}
	})

	AfterEach(func() {
		for _, v := range envVars {
			Expect(os.Unsetenv(v)).To(Succeed())
		}
	})

	writeConfig := func(content string) string {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	Context("with no file and no environment", func() {
		It("should return the defaults", func() {
			cfg, err := config.Load("")
			Expect(err).ToNot(HaveOccurred())

			Expect(cfg.API.BaseURL).To(Equal("http://localhost:3001"))
			Expect(cfg.API.RequestTimeout).To(Equal(30 * time.Second))
			Expect(cfg.API.InsecureTLS).To(BeFalse())
			Expect(cfg.Socket.URL).To(Equal("ws://localhost:3001/socket"))
			Expect(cfg.Socket.MaxReconnectAttempts).To(Equal(uint64(5)))
			Expect(cfg.Socket.EventBufferSize).To(Equal(100))
			Expect(cfg.Notifications.AutoExpiry).To(Equal(6 * time.Second))
		})

		It("should treat a missing file as absent, not as an error", func() {
			cfg, err := config.Load(filepath.Join(GinkgoT().TempDir(), "does-not-exist.yaml"))
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg).To(Equal(config.DefaultConfig()))
		})
	})

	Context("with a config file", func() {
		It("should parse the file and keep defaults for omitted fields", func() {
			path := writeConfig(`
api:
  baseURL: https://api.cargobuddy.example
  insecureTLS: true
socket:
  maxReconnectAttempts: 12
`)
			cfg, err := config.Load(path)
			Expect(err).ToNot(HaveOccurred())

			Expect(cfg.API.BaseURL).To(Equal("https://api.cargobuddy.example"))
			Expect(cfg.API.InsecureTLS).To(BeTrue())
			Expect(cfg.Socket.MaxReconnectAttempts).To(Equal(uint64(12)))

			// Omitted fields keep their defaults.
			Expect(cfg.Socket.URL).To(Equal("ws://localhost:3001/socket"))
			Expect(cfg.Socket.EventBufferSize).To(Equal(100))
			Expect(cfg.Notifications.AutoExpiry).To(Equal(6 * time.Second))
		})

		It("should fail on malformed YAML", func() {
			path := writeConfig("api: [not a mapping")
			_, err := config.Load(path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
		})
	})

	Context("with environment overrides", func() {
		It("should override both file values and defaults", func() {
			path := writeConfig(`
api:
  baseURL: https://from-file.example
`)
			Expect(os.Setenv("CARGOBUDDY_API_URL", "https://from-env.example")).To(Succeed())
			Expect(os.Setenv("CARGOBUDDY_SOCKET_URL", "wss://from-env.example/socket")).To(Succeed())
			Expect(os.Setenv("CARGOBUDDY_MAX_RECONNECT_ATTEMPTS", "3")).To(Succeed())
			Expect(os.Setenv("CARGOBUDDY_EVENT_BUFFER_SIZE", "42")).To(Succeed())

			cfg, err := config.Load(path)
			Expect(err).ToNot(HaveOccurred())

			Expect(cfg.API.BaseURL).To(Equal("https://from-env.example"))
			Expect(cfg.Socket.URL).To(Equal("wss://from-env.example/socket"))
			Expect(cfg.Socket.MaxReconnectAttempts).To(Equal(uint64(3)))
			Expect(cfg.Socket.EventBufferSize).To(Equal(42))
		})

		It("should reject a non-integer reconnect override", func() {
			Expect(os.Setenv("CARGOBUDDY_MAX_RECONNECT_ATTEMPTS", "many")).To(Succeed())

			_, err := config.Load("")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("CARGOBUDDY_MAX_RECONNECT_ATTEMPTS"))
		})

		It("should reject a negative reconnect override", func() {
			Expect(os.Setenv("CARGOBUDDY_MAX_RECONNECT_ATTEMPTS", "-1")).To(Succeed())

			_, err := config.Load("")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("must not be negative"))
		})
	})

	Context("validation", func() {
		It("should reject an empty API base URL", func() {
			cfg := config.DefaultConfig()
			cfg.API.BaseURL = ""
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("api.baseURL")))
		})

		It("should reject a non-positive event buffer", func() {
			path := writeConfig(`
socket:
  eventBufferSize: 0
`)
			_, err := config.Load(path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("eventBufferSize"))
		})

		It("should reject a non-positive notification expiry", func() {
			cfg := config.DefaultConfig()
			cfg.Notifications.AutoExpiry = 0
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("autoExpiry")))
		})
	})
})
