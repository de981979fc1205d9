// Package config collects the oracle daemon's process configuration: CLI
// flags, validation, and the dynamic subset Apollo can override at runtime.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gateway-fm/cdk-erigon-lib/common"
)

// Config is the process-wide configuration the oracle daemon runs with.
type Config struct {
	DataDir string

	L1RPCURLs         []string
	ContractAddresses []common.Address
	Topic             *[32]byte
	StartBlock        uint64
	BlockRange        uint64
	PollInterval      time.Duration
	Workers           int

	EncodingVersion       uint32
	LegacyNetworkIdentity bool

	MetricsAddr string

	ApolloAppID     string
	ApolloAddr      string
	ApolloNamespace string
}

// checkFlag panics with a descriptive message when a required flag was
// left at its zero value; mirrors the fail-fast startup checks the node
// daemon applies to its own required flags.
func checkFlag(flagName string, value interface{}) {
	switch v := value.(type) {
	case string:
		if v == "" {
			panic(fmt.Sprintf("flag not set: %s", flagName))
		}
	case uint64:
		if v == 0 {
			panic(fmt.Sprintf("flag not set: %s", flagName))
		}
	case []string:
		if len(v) == 0 {
			panic(fmt.Sprintf("flag not set: %s", flagName))
		}
	}
}

// FromCLI builds a Config from a parsed urfave/cli context, panicking if a
// required flag (L1 endpoints, contract addresses, topic) is missing.
func FromCLI(ctx *cli.Context) *Config {
	urls := ctx.StringSlice(L1RPCURLFlag.Name)
	checkFlag(L1RPCURLFlag.Name, urls)

	rawAddrs := ctx.StringSlice(ContractAddressFlag.Name)
	checkFlag(ContractAddressFlag.Name, rawAddrs)
	addrs := make([]common.Address, 0, len(rawAddrs))
	for _, a := range rawAddrs {
		addrs = append(addrs, common.HexToAddress(a))
	}

	topicHex := ctx.String(TopicFlag.Name)
	checkFlag(TopicFlag.Name, topicHex)
	var topic [32]byte
	copy(topic[:], common.FromHex(topicHex))

	return &Config{
		DataDir:               ctx.String(DataDirFlag.Name),
		L1RPCURLs:             urls,
		ContractAddresses:     addrs,
		Topic:                 &topic,
		StartBlock:            ctx.Uint64(StartBlockFlag.Name),
		BlockRange:            ctx.Uint64(BlockRangeFlag.Name),
		PollInterval:          ctx.Duration(PollIntervalFlag.Name),
		Workers:               ctx.Int(WorkersFlag.Name),
		EncodingVersion:       uint32(ctx.Uint(EncodingVersionFlag.Name)),
		LegacyNetworkIdentity: ctx.Bool(LegacyNetworkIdentityFlag.Name),
		MetricsAddr:           ctx.String(MetricsAddrFlag.Name),
		ApolloAppID:           ctx.String(ApolloAppIDFlag.Name),
		ApolloAddr:            ctx.String(ApolloAddrFlag.Name),
		ApolloNamespace:       ctx.String(ApolloNamespaceFlag.Name),
	}
}

// ContractAddressesString renders the configured addresses for logging.
func (c *Config) ContractAddressesString() string {
	parts := make([]string, len(c.ContractAddresses))
	for i, a := range c.ContractAddresses {
		parts[i] = a.Hex()
	}
	return strings.Join(parts, ",")
}
