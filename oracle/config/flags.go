package config

import "github.com/urfave/cli/v2"

// CLI flag definitions for the oracle daemon, in the style of an urfave/cli
// application: one Flag var per configuration knob, applied to a Config via
// FromCLI.
var (
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "directory holding the entity-store database",
		Value: "./oracle-data",
	}
	L1RPCURLFlag = &cli.StringSliceFlag{
		Name:  "l1.rpc-urls",
		Usage: "comma-separated L1 JSON-RPC endpoints, round-robined for log and calldata fetches",
	}
	ContractAddressFlag = &cli.StringSliceFlag{
		Name:  "l1.contract-addresses",
		Usage: "hex-encoded contract addresses emitting invocation logs",
	}
	TopicFlag = &cli.StringFlag{
		Name:  "l1.topic",
		Usage: "hex-encoded event topic identifying invocation logs",
	}
	StartBlockFlag = &cli.Uint64Flag{
		Name:  "l1.start-block",
		Usage: "L1 block to begin scanning from on first run",
	}
	BlockRangeFlag = &cli.Uint64Flag{
		Name:  "l1.block-range",
		Usage: "maximum block span per log-filter request",
		Value: 1000,
	}
	PollIntervalFlag = &cli.DurationFlag{
		Name:  "l1.poll-interval",
		Usage: "delay between checks for new L1 blocks",
		Value: defaultPollInterval,
	}
	WorkersFlag = &cli.IntFlag{
		Name:  "l1.workers",
		Usage: "concurrent log-fetch workers",
		Value: 2,
	}
	EncodingVersionFlag = &cli.UintFlag{
		Name:  "encoding-version",
		Usage: "initial/reset encoding version for newly created state",
		Value: 1,
	}
	LegacyNetworkIdentityFlag = &cli.BoolFlag{
		Name:  "legacy-network-identity",
		Usage: "key networks by sequential index instead of chain id",
	}
	MetricsAddrFlag = &cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "address to serve Prometheus metrics on; empty disables the server",
		Value: "127.0.0.1:9090",
	}
	ApolloAppIDFlag = &cli.StringFlag{
		Name:  "apollo.app-id",
		Usage: "Apollo config-center app id; empty disables dynamic reconfiguration",
	}
	ApolloAddrFlag = &cli.StringFlag{
		Name:  "apollo.addr",
		Usage: "Apollo config-center meta address",
	}
	ApolloNamespaceFlag = &cli.StringFlag{
		Name:  "apollo.namespace",
		Usage: "Apollo namespace carrying the oracle's dynamic config",
		Value: "oracle.txt",
	}

	// LoggingFlags are the flags the logging package reads on startup; kept
	// separate so cmd/oracle can pass the whole set straight to the app's
	// Flags slice.
	LoggingFlags = []cli.Flag{
		LogConsoleVerbosityFlag,
		LogDirVerbosityFlag,
		LogDirPathFlag,
		LogDirPrefixFlag,
		LogJSONFlag,
	}
)

// Flags is the full flag set the oracle CLI registers.
var Flags = append([]cli.Flag{
	DataDirFlag,
	L1RPCURLFlag,
	ContractAddressFlag,
	TopicFlag,
	StartBlockFlag,
	BlockRangeFlag,
	PollIntervalFlag,
	WorkersFlag,
	EncodingVersionFlag,
	LegacyNetworkIdentityFlag,
	MetricsAddrFlag,
	ApolloAppIDFlag,
	ApolloAddrFlag,
	ApolloNamespaceFlag,
}, LoggingFlags...)
