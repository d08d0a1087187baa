package logs

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. Usable before Init with logrus defaults.
var Logger = logrus.New()

type Options struct {
	Level  string // debug | info | warn | error
	Format string // text | json
	File   string // empty -> stderr
}

// Init configures Logger. An unknown level falls back to info; a file that
// cannot be opened falls back to stderr and is reported as a warning.
func Init(o Options) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(o.Level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(o.Format)) {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if o.File == "" {
		setOutput(os.Stderr, nil)
		return
	}
	f, ferr := os.OpenFile(o.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if ferr != nil {
		setOutput(os.Stderr, nil)
		Logger.Warnf("log file %s: %v, using stderr", o.File, ferr)
		return
	}
	setOutput(f, f)
}

var (
	outMu   sync.Mutex
	logFile *os.File // file opened by Init, closed when output is replaced
)

func setOutput(w io.Writer, f *os.File) {
	outMu.Lock()
	defer outMu.Unlock()
	Logger.SetOutput(w)
	if logFile != nil && logFile != f {
		_ = logFile.Close()
	}
	logFile = f
}

type ctxKey struct{}

// WithRequestID stores the request id for FromContext.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the id set by WithRequestID or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// FromContext returns a log entry tagged with the request id, if any.
func FromContext(ctx context.Context) *logrus.Entry {
	e := logrus.NewEntry(Logger)
	if id := RequestID(ctx); id != "" {
		e = e.WithField("request_id", id)
	}
	return e
}
