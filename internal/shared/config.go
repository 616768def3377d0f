package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MetricsAddr    string
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	SourceToken    string
	SourceRPS      int
	SourceURL      string // overrides the registry URL when exactly one municipality runs
	Municipalities []string
	FeedDest       string
	IDStrategy     string
	Timezone       string
	Workers        int
	PublishDB      bool
	CacheTTL       time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer config value")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/lives?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		SourceToken:    env("SOURCE_APP_TOKEN", ""),
		SourceRPS:      atoi("SOURCE_RPS", 5),
		SourceURL:      env("SOURCE_URL", ""),
		Municipalities: splitList(env("FEED_MUNICIPALITIES", "austin")),
		FeedDest:       env("FEED_DEST", "./out"),
		IDStrategy:     env("FEED_ID_STRATEGY", "facility"),
		Timezone:       env("FEED_TIMEZONE", "UTC"),
		Workers:        atoi("FEED_WORKERS", 2),
		PublishDB:      boolEnv("FEED_PUBLISH_DB", false),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.IDStrategy == "legacy" {
		log.Warn().Msg("FEED_ID_STRATEGY=legacy: business ids are hashes of name and street")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolEnv(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
