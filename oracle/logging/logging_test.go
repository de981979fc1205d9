package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupConsoleOnly(t *testing.T) {
	logger := log.New()
	setup(logger, "test", "", log.LvlInfo, log.LvlInfo, false)
	logger.Info("hello")
}

func TestSetupCreatesLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger := log.New()
	setup(logger, "oracle", dir, log.LvlInfo, log.LvlInfo, false)

	_, err := os.Stat(dir)
	require.NoError(t, err)
}

func TestTryGetLogLevelAcceptsNameAndNumeric(t *testing.T) {
	lvl, err := tryGetLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, log.LvlDebug, lvl)

	lvl, err = tryGetLogLevel("3")
	require.NoError(t, err)
	assert.Equal(t, log.Lvl(3), lvl)

	_, err = tryGetLogLevel("not-a-level")
	assert.Error(t, err)
}

func TestJSONLineFormatProducesParseableLine(t *testing.T) {
	r := &log.Record{Msg: "hello", Ctx: []interface{}{"key", "value"}}
	out := jsonLineFormat(r)
	assert.Contains(t, string(out), "\"msg\":\"hello\"")
	assert.Contains(t, string(out), "\"key\":\"value\"")
}
