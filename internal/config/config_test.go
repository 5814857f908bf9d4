package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/audioquery/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the reference defaults", func() {
			convey.So(cfg.QueryPath, convey.ShouldEqual, "/query")
			convey.So(cfg.QuitPath, convey.ShouldEqual, "/quit")
			convey.So(cfg.Port, convey.ShouldEqual, 7777)
			convey.So(cfg.Interface, convey.ShouldEqual, config.DefaultInterface())
			convey.So(cfg.MinDuration, convey.ShouldEqual, 1)
			convey.So(cfg.MaxDuration, convey.ShouldEqual, 20)
			convey.So(cfg.SoundWindow, convey.ShouldEqual, 5)
			convey.So(cfg.ShowResults, convey.ShouldEqual, 10)
			convey.So(cfg.DedupStrategy, convey.ShouldEqual, config.DedupByName)
			convey.So(cfg.KeywordEncoding, convey.ShouldEqual, "ascii")
			convey.So(cfg.SoundDir, convey.ShouldEndWith, "sounds")
		})

		convey.Convey("And the defaults should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And timeouts should be finite", func() {
			convey.So(cfg.SearchTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.DownloadTimeout(), convey.ShouldEqual, time.Minute)
			convey.So(cfg.PollTimeout(), convey.ShouldEqual, 50*time.Millisecond)
		})
	})
}

func TestConfig_ResolvedSearchURL(t *testing.T) {
	convey.Convey("Given the two providers", t, func() {
		cfg := config.New()

		convey.So(cfg.ResolvedSearchURL(), convey.ShouldContainSubstring, "freesound.org/apiv2/search/text")

		cfg.Provider = config.ProviderAudioCommons
		convey.So(cfg.ResolvedSearchURL(), convey.ShouldContainSubstring, "audiocommons.org")

		cfg.SearchURL = "http://127.0.0.1:1/search"
		convey.So(cfg.ResolvedSearchURL(), convey.ShouldEqual, "http://127.0.0.1:1/search")
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"relative query path", func(c *config.Config) { c.QueryPath = "query" }},
			{"quit equals query", func(c *config.Config) { c.QuitPath = c.QueryPath }},
			{"port out of range", func(c *config.Config) { c.Port = 70000 }},
			{"empty sound dir", func(c *config.Config) { c.SoundDir = "" }},
			{"unknown provider", func(c *config.Config) { c.Provider = "soundcloud" }},
			{"unknown dedup", func(c *config.Config) { c.DedupStrategy = "hash" }},
			{"unknown backend", func(c *config.Config) { c.PlayerBackend = "alsa" }},
			{"empty command", func(c *config.Config) { c.PlayerCommand = "" }},
			{"inverted durations", func(c *config.Config) { c.MinDuration, c.MaxDuration = 10, 2 }},
			{"negative window", func(c *config.Config) { c.SoundWindow = -1 }},
			{"zero search timeout", func(c *config.Config) { c.SearchTimeoutMS = 0 }},
			{"zero inbox", func(c *config.Config) { c.InboxSize = 0 }},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("When quit path is disabled", func() {
			cfg := config.New()
			cfg.QuitPath = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_ApplyArgs(t *testing.T) {
	convey.Convey("Given positional arguments", t, func() {
		convey.Convey("When none are given", func() {
			cfg := config.New()
			err := cfg.ApplyArgs(nil)

			convey.Convey("Then the defaults are kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.QueryPath, convey.ShouldEqual, "/query")
				convey.So(cfg.Port, convey.ShouldEqual, 7777)
			})
		})

		convey.Convey("When path, port and interface are given", func() {
			cfg := config.New()
			cfg.ListenIP = "10.0.0.2"
			err := cfg.ApplyArgs([]string{"/play", "8888", "eth1"})

			convey.Convey("Then they override the config", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.QueryPath, convey.ShouldEqual, "/play")
				convey.So(cfg.Port, convey.ShouldEqual, 8888)
				convey.So(cfg.Interface, convey.ShouldEqual, "eth1")
				convey.So(cfg.ListenIP, convey.ShouldEqual, "")
			})
		})

		convey.Convey("When the port is not a number", func() {
			cfg := config.New()
			err := cfg.ApplyArgs([]string{"/play", "loud"})

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When too many arguments are given", func() {
			cfg := config.New()
			err := cfg.ApplyArgs([]string{"/play", "8888", "eth1", "extra"})

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
