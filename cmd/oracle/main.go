// Command oracle runs the calldata decoder/indexer daemon: it watches L1
// for invocation events, decodes each payload, and maintains the canonical
// GlobalState in a durable entity store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gateway-fm/cdk-erigon-lib/kv"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/gateway-fm/epoch-oracle/oracle/cache"
	"github.com/gateway-fm/epoch-oracle/oracle/callsource"
	"github.com/gateway-fm/epoch-oracle/oracle/config"
	"github.com/gateway-fm/epoch-oracle/oracle/driver"
	"github.com/gateway-fm/epoch-oracle/oracle/entitystore"
	"github.com/gateway-fm/epoch-oracle/oracle/logging"
	"github.com/gateway-fm/epoch-oracle/oracle/metrics"
)

func main() {
	app := cli.NewApp()
	app.Name = "oracle"
	app.Usage = "decode and index cross-chain epoch invocation calldata"
	app.Flags = config.Flags
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	logger := logging.Setup(cliCtx)
	cfg := config.FromCLI(cliCtx)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	metrics.Init()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
	}

	apolloClient := config.NewApolloClient(config.Dynamic{
		BlockRange:   cfg.BlockRange,
		PollInterval: cfg.PollInterval,
		Workers:      cfg.Workers,
	}, cfg.ApolloNamespace)
	if cfg.ApolloAppID != "" {
		if err := apolloClient.Start(cfg.ApolloAppID, cfg.ApolloAddr); err != nil {
			logger.Warn("apollo dynamic config disabled", "err", err)
		}
	}

	db, err := entitystore.OpenDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("oracle: open entity store: %w", err)
	}
	defer db.Close()
	if err := ensureBuckets(ctx, db); err != nil {
		return err
	}

	ethermen := make([]callsource.Etherman, 0, len(cfg.L1RPCURLs))
	addrs := make([][20]byte, len(cfg.ContractAddresses))
	for i, a := range cfg.ContractAddresses {
		copy(addrs[i][:], a[:])
	}
	for _, url := range cfg.L1RPCURLs {
		ethermen = append(ethermen, callsource.NewRPCEtherman(url))
	}

	logger.Info("starting oracle", "l1.rpc-urls", len(ethermen), "l1.contracts", cfg.ContractAddressesString())

	source := callsource.NewL1LogCallSource(ethermen, callsource.L1LogCallSourceConfig{
		Addresses:  addrs,
		Topic:      cfg.Topic,
		BlockRange: cfg.BlockRange,
		Workers:    cfg.Workers,
		StartBlock: cfg.StartBlock,
	})

	d := driver.New(driver.Config{
		InitialEncodingVersion: cfg.EncodingVersion,
		LegacyNetworkIdentity:  cfg.LegacyNetworkIdentity,
		PreambleBits:           64,
	}, metrics.Observer{})

	return runLoop(ctx, logger, db, d, ethermen[0], source, apolloClient)
}

// ensureBuckets provisions the entity store's buckets once, up front, in a
// throwaway transaction.
func ensureBuckets(ctx context.Context, db kv.RwDB) error {
	tx, err := db.BeginRw(ctx)
	if err != nil {
		return fmt.Errorf("oracle: begin bucket-creation tx: %w", err)
	}
	defer tx.Rollback()
	if err := entitystore.CreateBuckets(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// runLoop polls source for new invocation events and feeds each one, in
// order, to the driver; every invocation runs in its own durable
// transaction, committed only if the driver accepted it (valid or
// rejected-but-recorded) and rolled back only on an EntityStoreFailure.
func runLoop(ctx context.Context, logger log.Logger, db kv.RwDB, d *driver.Driver, chainTip callsource.Etherman, source *callsource.L1LogCallSource, apolloClient *config.ApolloClient) error {
	for {
		select {
		case <-ctx.Done():
			logger.Info("oracle shutting down")
			return nil
		default:
		}

		latest, err := chainTip.LatestBlock(ctx)
		if err != nil {
			logger.Warn("failed to fetch latest L1 block", "err", err)
			if !sleep(ctx, apolloClient.Snapshot().PollInterval) {
				return nil
			}
			continue
		}

		processedAny := false
		for {
			event, ok, err := source.Next(ctx, latest)
			if err != nil {
				logger.Error("call source error", "err", err)
				break
			}
			if !ok {
				break
			}
			processedAny = true

			if err := processEvent(ctx, db, d, event); err != nil {
				logger.Error("invocation failed", "tx", event.TxHash, "err", err)
			}
		}

		if !processedAny {
			if !sleep(ctx, apolloClient.Snapshot().PollInterval) {
				return nil
			}
		}
	}
}

func processEvent(ctx context.Context, db kv.RwDB, d *driver.Driver, event callsource.Event) error {
	tx, err := db.BeginRw(ctx)
	if err != nil {
		return fmt.Errorf("oracle: begin invocation tx: %w", err)
	}
	defer tx.Rollback()

	store := entitystore.NewKVEntityStore(tx)
	c := cache.New(store, cache.DefaultCleanLayerSize)

	if _, err := d.Invoke(ctx, c, event.TxHash, event.Submitter, event.Payload, event.BlockNumber); err != nil {
		return err
	}
	return tx.Commit()
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Second
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
