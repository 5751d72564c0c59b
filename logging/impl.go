package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name  string
	level zap.AtomicLevel
	inner *zap.SugaredLogger
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	return &impl{
		name:  newName,
		level: imp.level,
		inner: imp.inner.Named(subname),
	}
}

func (imp *impl) SetLevel(level zapcore.Level) {
	imp.level.SetLevel(level)
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.inner
}

func (imp *impl) Sync() error {
	return imp.inner.Sync()
}

func (imp *impl) Debug(args ...interface{}) { imp.inner.Debug(args...) }
func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.inner.Debugf(template, args...)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.inner.Debugw(msg, keysAndValues...)
}

func (imp *impl) Info(args ...interface{}) { imp.inner.Info(args...) }
func (imp *impl) Infof(template string, args ...interface{}) {
	imp.inner.Infof(template, args...)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.inner.Infow(msg, keysAndValues...)
}

func (imp *impl) Warn(args ...interface{}) { imp.inner.Warn(args...) }
func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.inner.Warnf(template, args...)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.inner.Warnw(msg, keysAndValues...)
}

func (imp *impl) Error(args ...interface{}) { imp.inner.Error(args...) }
func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.inner.Errorf(template, args...)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.inner.Errorw(msg, keysAndValues...)
}

func (imp *impl) Fatal(args ...interface{}) { imp.inner.Fatal(args...) }
func (imp *impl) Fatalf(template string, args ...interface{}) {
	imp.inner.Fatalf(template, args...)
}
