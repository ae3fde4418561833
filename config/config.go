package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type ConfigStruct struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Admin    AdminConfig
	Options  Options
	Database DatabaseConfig
	Sentry   SentryConfig
	NGrok    NGrokConfig
}

type ServerConfig struct {
	Port        string
	PublicDir   string
	IndexFile   string
	MediaPrefix string
}

type CatalogConfig struct {
	File           string
	CoverPrefix    string
	DefaultCover   string
	PriorityAlbums []string
	Watch          bool
}

type SaveMode string

const (
	SaveDownload SaveMode = "download"
	SavePost     SaveMode = "post"
)

type AdminConfig struct {
	// Password only toggles the admin view. It is not access control: anyone
	// who can read the page source or the env can get past it.
	Password           string
	SaveMode           SaveMode
	LoginRatePerMinute int
}

type Options struct {
	IdleTimeoutMinutes int
	ErrorSkipDelay     time.Duration
	LogLevel           string
}

type DatabaseConfig struct {
	Path string
}

type SentryConfig struct {
	DSN     string
	Release string
}

type NGrokConfig struct {
	Domain string
}

func (n *NGrokConfig) IsEnabled() bool {
	return n.Domain != ""
}

func (a *AdminConfig) PostEnabled() bool {
	return a.SaveMode == SavePost
}

// CatalogPath is the on-disk location of the catalog document.
func (c *ConfigStruct) CatalogPath() string {
	if filepath.IsAbs(c.Catalog.File) {
		return c.Catalog.File
	}
	return filepath.Join(c.Server.PublicDir, c.Catalog.File)
}

func (c *ConfigStruct) MediaDir() string {
	return filepath.Join(c.Server.PublicDir, filepath.FromSlash(c.Server.MediaPrefix))
}

var Config *ConfigStruct

func NewConfig() {
	config := &ConfigStruct{
		Server: ServerConfig{
			Port:        getString("PORT", "3000"),
			PublicDir:   getString("PUBLIC_DIR", "."),
			IndexFile:   getString("INDEX_FILE", "index.html"),
			MediaPrefix: strings.Trim(getString("MEDIA_PREFIX", "media"), "/"),
		},
		Catalog: CatalogConfig{
			File:           getString("CATALOG_FILE", "tracks.json"),
			CoverPrefix:    strings.Trim(getString("COVER_PREFIX", "uploads"), "/"),
			DefaultCover:   getString("DEFAULT_COVER", "images/midcube.png"),
			PriorityAlbums: getList("PRIORITY_ALBUMS"),
			Watch:          os.Getenv("WATCH_CATALOG") != "false",
		},
		Admin: AdminConfig{
			Password:           getString("ADMIN_PASSWORD", "230470"),
			SaveMode:           getSaveMode(),
			LoginRatePerMinute: getLoginRate(),
		},
		Options: Options{
			IdleTimeoutMinutes: getIdleTimeout(),
			ErrorSkipDelay:     getErrorSkipDelay(),
			LogLevel:           getString("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Path: getString("DB_PATH", "data/cubecubic.db"),
		},
		Sentry: SentryConfig{
			DSN:     os.Getenv("SENTRY_DSN"),
			Release: os.Getenv("RELEASE"),
		},
		NGrok: NGrokConfig{
			Domain: os.Getenv("NGROK_DOMAIN"),
		},
	}

	Config = config
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getSaveMode() SaveMode {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SAVE_MODE"))) {
	case string(SavePost):
		return SavePost
	default:
		return SaveDownload
	}
}

func getIdleTimeout() int {
	timeoutStr := os.Getenv("IDLE_TIMEOUT_MINUTES")
	if timeoutStr == "" {
		return 20
	}
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil || timeout <= 0 {
		return 20
	}
	return timeout
}

func getErrorSkipDelay() time.Duration {
	delayStr := os.Getenv("PLAYBACK_ERROR_SKIP_DELAY_MS")
	if delayStr == "" {
		return 1500 * time.Millisecond
	}
	delay, err := strconv.Atoi(delayStr)
	if err != nil || delay < 0 {
		return 1500 * time.Millisecond
	}
	if delay > 10000 {
		return 10 * time.Second
	}
	return time.Duration(delay) * time.Millisecond
}

func getLoginRate() int {
	rateStr := os.Getenv("LOGIN_RATE_PER_MINUTE")
	if rateStr == "" {
		return 10
	}
	rate, err := strconv.Atoi(rateStr)
	if err != nil || rate <= 0 {
		return 10
	}
	if rate > 600 {
		return 600
	}
	return rate
}
