package logger

import (
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// Leveled adapts logrus to retryablehttp's LeveledLogger.
type Leveled struct {
	Entry *logrus.Entry
}

var _ retryablehttp.LeveledLogger = Leveled{}

func NewLeveled(component string) Leveled {
	return Leveled{Entry: logrus.WithField("component", component)}
}

func (l Leveled) fields(kv []interface{}) *logrus.Entry {
	e := l.Entry
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			e = e.WithField(k, kv[i+1])
		}
	}
	return e
}

func (l Leveled) Error(msg string, kv ...interface{}) { l.fields(kv).Error(msg) }
func (l Leveled) Info(msg string, kv ...interface{})  { l.fields(kv).Debug(msg) }
func (l Leveled) Debug(msg string, kv ...interface{}) { l.fields(kv).Debug(msg) }
func (l Leveled) Warn(msg string, kv ...interface{})  { l.fields(kv).Warn(msg) }
