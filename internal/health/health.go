package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/atomic"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

// Checker serves /healthz (process up) and /readyz (accepting traffic:
// not draining and, when a DB is attached, DB reachable).
type Checker struct {
	db    *gorm.DB
	ready atomic.Bool
}

func NewChecker(db *gorm.DB) *Checker {
	c := &Checker{db: db}
	c.ready.Store(true)
	return c
}

// SetReady flips readiness; the app clears it when shutdown starts.
func (c *Checker) SetReady(v bool) { c.ready.Store(v) }

func (c *Checker) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", c.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", c.readyz).Methods(http.MethodGet)
}

func RegisterRoutesWithDB(r *mux.Router, db *gorm.DB) *Checker {
	c := NewChecker(db)
	c.RegisterRoutes(r)
	return c
}

func (c *Checker) healthz(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *Checker) readyz(w http.ResponseWriter, r *http.Request) {
	if !c.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	if c.db != nil {
		if err := c.ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "db unavailable", "error": err.Error()})
			return
		}
	}
	writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (c *Checker) ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
