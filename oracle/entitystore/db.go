package entitystore

import (
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/gateway-fm/cdk-erigon-lib/kv"
	"github.com/gateway-fm/cdk-erigon-lib/kv/mdbx"
	"github.com/ledgerwatch/log/v3"
	mdbx2 "github.com/torquem-ch/mdbx-go/mdbx"
)

// DBLabel identifies the oracle's database in mdbx's multi-database
// bookkeeping (metrics, admin tooling).
const DBLabel kv.Label = 64

var tableCfg = buildTableCfg()

func buildTableCfg() kv.TableCfg {
	cfg := kv.TableCfg{}
	for _, k := range Kinds {
		cfg[k] = kv.TableCfgItem{}
	}
	return cfg
}

// OpenDB opens (creating if absent) the mdbx database backing a
// KVEntityStore at dataDir.
func OpenDB(dataDir string) (kv.RwDB, error) {
	db, err := mdbx.NewMDBX(log.New()).Label(DBLabel).Path(dataDir).
		WithTableCfg(func(defaultBuckets kv.TableCfg) kv.TableCfg { return tableCfg }).
		Flags(func(f uint) uint { return f ^ mdbx2.Durable | mdbx2.SafeNoSync }).
		GrowthStep(16 * datasize.MB).
		SyncPeriod(30 * time.Second).
		Open()
	if err != nil {
		return nil, err
	}
	return db, nil
}
