package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/apolloconfig/agollo/v4"
	agolloConfig "github.com/apolloconfig/agollo/v4/env/config"
	"github.com/apolloconfig/agollo/v4/storage"
	"github.com/ledgerwatch/log/v3"
	"gopkg.in/yaml.v2"
)

// Dynamic is the subset of Config an operator can push a live update to
// through Apollo: poll cadence and the per-request L1 fetch shape. The
// daemon reads only PollInterval from the live snapshot; its L1 call source
// keeps the BlockRange and Workers values from the CLI flags it was built
// with. Everything identifying chain/contract/topic stays fixed for the
// process lifetime.
type Dynamic struct {
	BlockRange   uint64        `yaml:"l1_block_range"`
	PollInterval time.Duration `yaml:"l1_poll_interval"`
	Workers      int           `yaml:"l1_workers"`
}

// ApolloClient watches a single Apollo namespace and keeps a Dynamic
// snapshot current; callers read it with Snapshot() from any goroutine.
type ApolloClient struct {
	namespace string

	mu  sync.RWMutex
	dyn Dynamic
}

// NewApolloClient returns a client seeded with the config loaded from CLI
// flags, so a not-yet-connected Apollo client still serves sane values.
func NewApolloClient(initial Dynamic, namespace string) *ApolloClient {
	return &ApolloClient{namespace: namespace, dyn: initial}
}

// Snapshot returns the current dynamic config.
func (c *ApolloClient) Snapshot() Dynamic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dyn
}

// Start connects to the Apollo meta server at addr under appID and begins
// watching c.namespace; it applies the namespace's initial content
// synchronously before returning, then updates asynchronously on every
// push.
func (c *ApolloClient) Start(appID, addr string) error {
	client, err := agollo.StartWithConfig(func() (*agolloConfig.AppConfig, error) {
		return &agolloConfig.AppConfig{
			AppID:         appID,
			Cluster:       "default",
			IP:            addr,
			NamespaceName: c.namespace,
			IsBackupConfig: true,
		}, nil
	})
	if err != nil {
		return fmt.Errorf("config: start apollo client: %w", err)
	}

	client.AddChangeListener(&apolloListener{client: c})

	if cache := client.GetConfigCache(c.namespace); cache != nil {
		if value, err := cache.Get(c.namespace); err == nil && value != nil {
			c.apply(value)
		}
	}
	return nil
}

func (c *ApolloClient) apply(value interface{}) {
	raw, ok := value.(string)
	if !ok {
		log.Error(fmt.Sprintf("apollo: config value for %s was not a string", c.namespace))
		return
	}

	var dyn Dynamic
	if err := yaml.Unmarshal([]byte(raw), &dyn); err != nil {
		log.Error(fmt.Sprintf("apollo: failed to unmarshal %s: %v", c.namespace, err))
		return
	}

	c.mu.Lock()
	if dyn.BlockRange != 0 {
		c.dyn.BlockRange = dyn.BlockRange
	}
	if dyn.PollInterval != 0 {
		c.dyn.PollInterval = dyn.PollInterval
	}
	if dyn.Workers != 0 {
		c.dyn.Workers = dyn.Workers
	}
	c.mu.Unlock()

	log.Info(fmt.Sprintf("apollo: applied config update for %s: %+v", c.namespace, c.Snapshot()))
}

// apolloListener bridges agollo's push notifications back into the
// owning ApolloClient.
type apolloListener struct {
	client *ApolloClient
}

func (l *apolloListener) OnChange(event *storage.ChangeEvent) {
	change, ok := event.Changes[l.client.namespace]
	if !ok {
		return
	}
	log.Info(fmt.Sprintf("apollo: %s changed from %v to %v", l.client.namespace, change.OldValue, change.NewValue))
	l.client.apply(change.NewValue)
}

func (l *apolloListener) OnNewestChange(event *storage.FullChangeEvent) {}
