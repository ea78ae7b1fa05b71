package zerolog

import (
	"github.com/rs/zerolog"
	"github.com/unkn0wn-root/rediskit"
)

var _ rediskit.Logger = Logger{}

type Logger struct{ L zerolog.Logger }

func (z Logger) Debug(msg string, f rediskit.Fields) { z.L.Debug().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Info(msg string, f rediskit.Fields)  { z.L.Info().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Warn(msg string, f rediskit.Fields)  { z.L.Warn().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Error(msg string, f rediskit.Fields) { z.L.Error().Fields(map[string]any(f)).Msg(msg) }
