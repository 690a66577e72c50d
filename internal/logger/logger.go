package logger

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type appNameHook struct {
	appName string
}

func (h *appNameHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *appNameHook) Fire(entry *logrus.Entry) error {
	entry.Data["app"] = h.appName
	return nil
}

// Init configures the standard logrus logger. LOG_LEVEL defaults to info.
func Init(appName string) {
	logrus.SetOutput(os.Stdout)
	lvl := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if lvl == "" {
		lvl = "info"
	}
	level, err := logrus.ParseLevel(lvl)
	if err != nil {
		logrus.Warnf("invalid LOG_LEVEL %q, defaulting to info", lvl)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.AddHook(&appNameHook{appName: appName})
}

// Middleware logs one line per request with status and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		entry := logrus.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  status,
			"bytes":   ww.BytesWritten(),
			"elapsed": time.Since(start).String(),
		})
		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	})
}
