package logging

import (
	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
)

// ZapLogger adapts a zap logger to runtime.Logger so code written against the
// Nakama logger also runs outside the Nakama process.
type ZapLogger struct {
	sugar  *zap.SugaredLogger
	fields map[string]interface{}
}

var _ runtime.Logger = (*ZapLogger)(nil)

// NewZapLogger wraps l. A nil logger is replaced by a no-op logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{sugar: l.Sugar(), fields: map[string]interface{}{}}
}

// Nop returns a logger that discards everything.
func Nop() *ZapLogger {
	return NewZapLogger(zap.NewNop())
}

func (z *ZapLogger) Debug(format string, v ...interface{}) { z.sugar.Debugf(format, v...) }
func (z *ZapLogger) Info(format string, v ...interface{})  { z.sugar.Infof(format, v...) }
func (z *ZapLogger) Warn(format string, v ...interface{})  { z.sugar.Warnf(format, v...) }
func (z *ZapLogger) Error(format string, v ...interface{}) { z.sugar.Errorf(format, v...) }

func (z *ZapLogger) WithField(key string, v interface{}) runtime.Logger {
	return z.WithFields(map[string]interface{}{key: v})
}

func (z *ZapLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(z.fields)+len(fields))
	for k, v := range z.fields {
		merged[k] = v
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		merged[k] = v
		args = append(args, k, v)
	}
	return &ZapLogger{sugar: z.sugar.With(args...), fields: merged}
}

func (z *ZapLogger) Fields() map[string]interface{} {
	return z.fields
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}
