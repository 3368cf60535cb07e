package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	// Namespace prefixes every session key, separated by ":".
	Namespace     string `env:"REDIS_NAMESPACE" envDefault:"twitterkit"`
	ScanBatchSize int64  `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"500"`
}
