package rediskit_test

import (
	"bytes"
	stdslog "log/slog"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/rediskit"
	logruslog "github.com/unkn0wn-root/rediskit/log/logrus"
	sloglog "github.com/unkn0wn-root/rediskit/log/slog"
	zaplog "github.com/unkn0wn-root/rediskit/log/zap"
	zerologlog "github.com/unkn0wn-root/rediskit/log/zerolog"
)

func TestZapAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var l rediskit.Logger = zaplog.ZapLogger{L: zap.New(core)}

	l.Info("connected", rediskit.Fields{"addr": "localhost:6379"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "connected", entries[0].Message)
	assert.Equal(t, "localhost:6379", entries[0].ContextMap()["addr"])
}

func TestLogrusAdapter(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetLevel(logrus.DebugLevel)

	var l rediskit.Logger = logruslog.LogrusLogger{E: logrus.NewEntry(base)}
	l.Warn("pool pressure", rediskit.Fields{"idle": 0})

	assert.Contains(t, buf.String(), "pool pressure")
	assert.Contains(t, buf.String(), "idle")
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	var l rediskit.Logger = sloglog.Logger{L: stdslog.New(stdslog.NewJSONHandler(&buf, nil))}

	l.Error("ping failed", rediskit.Fields{"attempt": 1})
	assert.Contains(t, buf.String(), "ping failed")
	assert.Contains(t, buf.String(), `"attempt":1`)
}

func TestZerologAdapter(t *testing.T) {
	var buf bytes.Buffer
	var l rediskit.Logger = zerologlog.Logger{L: zerolog.New(&buf)}

	l.Debug("scan page", rediskit.Fields{"cursor": 42})
	assert.Contains(t, buf.String(), "scan page")
	assert.Contains(t, buf.String(), `"cursor":42`)
}
