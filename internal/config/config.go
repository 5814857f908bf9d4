// Package config defines daemon configuration structures and loading hooks.
//
// Conventions:
// - Keys are flat snake_case so they map 1:1 to AUDIOQUERY_* env vars.
// - Durations are configured in milliseconds and exposed through helpers.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Search providers.
const (
	ProviderFreesound    = "freesound"
	ProviderAudioCommons = "audiocommons"
)

// Playback backends.
const (
	PlayerExec = "exec"
	PlayerMPD  = "mpd"
)

// Sound file dedup strategies.
const (
	DedupByName = "name"
	DedupByID   = "id"
)

const (
	defaultFreesoundURL    = "https://freesound.org/apiv2/search/text/"
	defaultAudioCommonsURL = "http://m2.audiocommons.org/api/audioclips/search"
	maxPort                = 65535
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// QueryPath is the OSC address routed to the dispatcher.
	QueryPath string `koanf:"query_path"`
	// QuitPath is the OSC address that stops the listener. Empty disables it.
	QuitPath string `koanf:"quit_path"`
	// Port is the UDP port the listener binds.
	Port int `koanf:"port"`
	// Interface names the network interface whose address is bound.
	Interface string `koanf:"interface"`
	// ListenIP overrides the interface lookup when set.
	ListenIP string `koanf:"listen_ip"`
	// PollTimeoutMS bounds how long one receive waits before the drain cycle ends.
	PollTimeoutMS int `koanf:"poll_timeout_ms"`
	// InboxSize bounds the queue of websocket queries waiting for the listener.
	InboxSize int `koanf:"inbox_size"`

	// SoundDir is where downloaded sounds are cached.
	SoundDir string `koanf:"sound_dir"`
	// DedupStrategy is "name" (file per display name) or "id" (name plus remote id).
	DedupStrategy string `koanf:"dedup_strategy"`
	// KeywordEncoding is the single-byte encoding a keyword must fit.
	KeywordEncoding string `koanf:"keyword_encoding"`

	// Provider selects the search API: freesound or audiocommons.
	Provider string `koanf:"provider"`
	// SearchURL overrides the provider's endpoint.
	SearchURL string `koanf:"search_url"`
	// APIToken is the static credential sent as the token parameter.
	APIToken string `koanf:"api_token"`
	// SourceFilter is the content provider requested from Audio Commons.
	SourceFilter string `koanf:"source_filter"`
	// MinDuration and MaxDuration bound sound length in seconds.
	MinDuration int `koanf:"min_duration"`
	MaxDuration int `koanf:"max_duration"`
	// SoundWindow is the number of top results eligible for random selection.
	SoundWindow int `koanf:"sound_window"`
	// ShowResults is how many result names get logged.
	ShowResults int `koanf:"show_results"`
	// SearchTimeoutMS and DownloadTimeoutMS bound remote calls.
	SearchTimeoutMS   int `koanf:"search_timeout_ms"`
	DownloadTimeoutMS int `koanf:"download_timeout_ms"`

	// PlayerBackend is exec or mpd.
	PlayerBackend string `koanf:"player_backend"`
	// PlayerCommand is the executable started with the sound path as its only argument.
	PlayerCommand string `koanf:"player_command"`
	// MPDAddr and MPDPassword configure the mpd backend.
	MPDAddr     string `koanf:"mpd_addr"`
	MPDPassword string `koanf:"mpd_password"`

	// AdminAddr is the HTTP listen address for /healthz, /stats and /ws. Empty disables it.
	AdminAddr string `koanf:"admin_addr"`
	// AdminOrigins lists extra browser origins allowed on /ws.
	AdminOrigins []string `koanf:"admin_origins"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		QueryPath:         "/query",
		QuitPath:          "/quit",
		Port:              7777,
		Interface:         DefaultInterface(),
		PollTimeoutMS:     50,
		InboxSize:         64,
		SoundDir:          DefaultSoundDir(),
		DedupStrategy:     DedupByName,
		KeywordEncoding:   "ascii",
		Provider:          ProviderFreesound,
		SourceFilter:      "freesound",
		MinDuration:       1,
		MaxDuration:       20,
		SoundWindow:       5,
		ShowResults:       10,
		SearchTimeoutMS:   10_000,
		DownloadTimeoutMS: 60_000,
		PlayerBackend:     PlayerExec,
		PlayerCommand:     DefaultPlayerCommand(),
		MPDAddr:           "localhost:6600",
		AdminAddr:         "127.0.0.1:9780",
	}
}

// DefaultInterface returns the platform's usual wireless interface name.
func DefaultInterface() string {
	switch runtime.GOOS {
	case "darwin":
		return "en0"
	case "windows":
		return "Wi-Fi"
	default:
		return "wlan0"
	}
}

// DefaultPlayerCommand returns the platform's stock command-line audio player.
func DefaultPlayerCommand() string {
	if runtime.GOOS == "darwin" {
		return "/usr/bin/afplay"
	}
	return "mpg123"
}

// DefaultSoundDir returns ~/Documents/sounds, or ./sounds when no home is known.
func DefaultSoundDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "sounds"
	}
	return filepath.Join(home, "Documents", "sounds")
}

// ResolvedSearchURL returns SearchURL or the provider's default endpoint.
func (c *Config) ResolvedSearchURL() string {
	if c.SearchURL != "" {
		return c.SearchURL
	}
	if c.Provider == ProviderAudioCommons {
		return defaultAudioCommonsURL
	}
	return defaultFreesoundURL
}

// PollTimeout returns the per-receive wait.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutMS) * time.Millisecond
}

// SearchTimeout returns the search request timeout.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMS) * time.Millisecond
}

// DownloadTimeout returns the download request timeout.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case !strings.HasPrefix(c.QueryPath, "/"):
		return fmt.Errorf("%w: query_path %q must start with /", ErrInvalidConfig, c.QueryPath)
	case c.QuitPath != "" && !strings.HasPrefix(c.QuitPath, "/"):
		return fmt.Errorf("%w: quit_path %q must start with /", ErrInvalidConfig, c.QuitPath)
	case c.QuitPath == c.QueryPath:
		return fmt.Errorf("%w: quit_path must differ from query_path", ErrInvalidConfig)
	case c.Port < 0 || c.Port > maxPort:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	case c.SoundDir == "":
		return fmt.Errorf("%w: sound_dir must not be empty", ErrInvalidConfig)
	case c.Provider != ProviderFreesound && c.Provider != ProviderAudioCommons:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	case c.DedupStrategy != DedupByName && c.DedupStrategy != DedupByID:
		return fmt.Errorf("%w: unknown dedup_strategy %q", ErrInvalidConfig, c.DedupStrategy)
	case c.PlayerBackend != PlayerExec && c.PlayerBackend != PlayerMPD:
		return fmt.Errorf("%w: unknown player_backend %q", ErrInvalidConfig, c.PlayerBackend)
	case c.PlayerBackend == PlayerExec && c.PlayerCommand == "":
		return fmt.Errorf("%w: player_command must not be empty", ErrInvalidConfig)
	case c.MinDuration < 0 || c.MaxDuration < c.MinDuration:
		return fmt.Errorf("%w: duration range [%d, %d] is invalid", ErrInvalidConfig, c.MinDuration, c.MaxDuration)
	case c.SoundWindow < 0:
		return fmt.Errorf("%w: sound_window must not be negative", ErrInvalidConfig)
	case c.SearchTimeoutMS <= 0 || c.DownloadTimeoutMS <= 0:
		return fmt.Errorf("%w: remote call timeouts must be positive", ErrInvalidConfig)
	case c.InboxSize <= 0:
		return fmt.Errorf("%w: inbox_size must be positive", ErrInvalidConfig)
	}
	return nil
}
