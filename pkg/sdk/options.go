package topicdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Model store drivers.
const (
	storeMemory = "memory"
	storeValkey = "valkey"
	storeRedis  = "redis"
	storeNone   = "none"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	store      string
	addrs      []string
	password   string
	maxEntries int
	ttl        time.Duration
	keyPrefix  string

	components         int
	normalize          bool
	minSamples         int
	topNWords          int
	autoMergeThreshold float64
	maxDocuments       int

	labeler          Labeler
	labelConcurrency int
	labelSamples     int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithMemoryStore keeps fitted models in process memory, evicting the least
// recently used beyond maxEntries and anything older than ttl. This is the default.
func WithMemoryStore(maxEntries int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.store = storeMemory
		c.maxEntries = maxEntries
		c.ttl = ttl
	})
}

// WithValkey stores fitted models in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.store = storeValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores fitted models in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.store = storeRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithModelTTL sets how long stored models stay addressable. Default: 24h.
func WithModelTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.ttl = ttl
	})
}

// WithKeyPrefix sets the Valkey/Redis key namespace. Default: "topicdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithoutStore disables model storage: results carry no ModelID and
// Topic/Reduce report not-found/not-fitted.
func WithoutStore() Option {
	return optionFunc(func(c *clientConfig) {
		c.store = storeNone
	})
}

// WithReduction sets the number of principal components embeddings are
// projected onto before clustering (0 disables) and whether they are
// L2-normalised first. Defaults: 5, true.
func WithReduction(components int, normalize bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.components = components
		c.normalize = normalize
	})
}

// WithMinSamples sets the density neighbourhood size; 0 uses the min topic size.
func WithMinSamples(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.minSamples = n
	})
}

// WithTopNWords sets how many keywords are computed per topic. Default: 30.
func WithTopNWords(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topNWords = n
	})
}

// WithAutoMergeThreshold sets the keyword similarity above which topics are
// merged when no topic count is requested. Default: 0.915.
func WithAutoMergeThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.autoMergeThreshold = t
	})
}

// WithMaxDocuments rejects larger analyses. Default: unlimited.
func WithMaxDocuments(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxDocuments = n
	})
}

// WithLabeler enables topic summaries. concurrency bounds parallel calls and
// samples is the number of document texts passed per topic; values <= 0 use
// the defaults of 4 and 4.
func WithLabeler(l Labeler, concurrency, samples int) Option {
	return optionFunc(func(c *clientConfig) {
		c.labeler = l
		c.labelConcurrency = concurrency
		c.labelSamples = samples
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
