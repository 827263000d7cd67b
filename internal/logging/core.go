package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// newCore builds the redacting core. With sampling enabled, entries below
// error go through a sampler and errors bypass it.
func newCore(cfg *Config) (zapcore.Core, error) {
	enc, err := newRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = zapcore.Lock(os.Stdout)
	}

	if !cfg.Sampling.Enabled {
		return zapcore.NewCore(enc, out, cfg.Level), nil
	}
	return sampled(enc, out, cfg.Level, cfg.Sampling), nil
}

func sampled(enc zapcore.Encoder, out zapcore.WriteSyncer, min zapcore.Level, s SamplingConfig) zapcore.Core {
	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= min && l < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= min && l >= zapcore.ErrorLevel
	})
	return zapcore.NewTee(
		zapcore.NewSamplerWithOptions(zapcore.NewCore(enc, out, low), s.Tick, s.Initial, s.Thereafter),
		zapcore.NewCore(enc.Clone(), out, high),
	)
}
