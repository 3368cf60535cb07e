package twitterkit

import (
	"time"

	"github.com/dmitrymomot/twitterkit/pkg/httpserver"
	"github.com/dmitrymomot/twitterkit/pkg/mongo"
	"github.com/dmitrymomot/twitterkit/pkg/pg"
	"github.com/dmitrymomot/twitterkit/pkg/redis"
)

// Store backends selectable with TWITTER_STORE.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Config is loaded with config.Load. Backend sections are only read when the
// matching store is selected.
type Config struct {
	ConsumerKey    string `env:"TWITTER_CONSUMER_KEY,required"`
	ConsumerSecret string `env:"TWITTER_CONSUMER_SECRET,required"`

	// CallbackURL pins the sign-in redirect target. Empty binds a loopback
	// port per sign-in.
	CallbackURL string `env:"TWITTER_CALLBACK_URL"`
	APIURL      string `env:"TWITTER_API_URL" envDefault:"https://api.twitter.com"`

	VerifyInterval  time.Duration `env:"TWITTER_VERIFY_INTERVAL" envDefault:"6h"`
	VerifySchedule  string        `env:"TWITTER_VERIFY_SCHEDULE"`
	Workers         int           `env:"TWITTER_WORKERS" envDefault:"4"`
	ClientCacheSize int           `env:"TWITTER_CLIENT_CACHE_SIZE" envDefault:"16"`

	Store         string `env:"TWITTER_STORE" envDefault:"file"`
	SessionFile   string `env:"TWITTER_SESSION_FILE"`
	EncryptionKey string `env:"TWITTER_ENCRYPTION_KEY"`

	Callback httpserver.Config `envPrefix:"TWITTER_CALLBACK_"`
	Redis    redis.Config
	Postgres pg.Config
	Mongo    mongo.Config
}
