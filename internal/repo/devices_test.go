package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"devmgmt/internal/db"
	"devmgmt/internal/models"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DeviceStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, db.SetPool(gdb, db.Pool{MaxOpenConns: 1}))
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewDeviceStore(gdb)
}

func TestSave_AssignsIDOnInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := &models.Device{SerialNumber: "D1234567890", LifeCycleState: models.PendingInstall}
	require.NoError(t, s.Save(ctx, d))
	require.NotEmpty(t, d.ID)
	_, err := uuid.Parse(d.ID)
	assert.NoError(t, err)

	got, ok, err := s.FindByID(ctx, d.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, d.Equal(got))
	assert.Equal(t, d.SerialNumber, got.SerialNumber)
	assert.Equal(t, d.LifeCycleState, got.LifeCycleState)
}

func TestSave_DuplicateSerialNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &models.Device{SerialNumber: "D0000000001", LifeCycleState: models.PendingInstall}
	require.NoError(t, s.Save(ctx, first))

	second := &models.Device{SerialNumber: "D0000000001", LifeCycleState: models.Active}
	err := s.Save(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConstraintViolation), err)
	assert.Empty(t, second.ID)

	// first record untouched
	got, ok, err := s.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.PendingInstall, got.LifeCycleState)
}

func TestSave_UpdatesExistingByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := &models.Device{SerialNumber: "D0000000002", LifeCycleState: models.PendingInstall}
	require.NoError(t, s.Save(ctx, d))
	id := d.ID

	before, ok, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, before.CreatedAt.IsZero())

	// fresh value carrying only the id, as a caller without the loaded row would build it
	upd := &models.Device{ID: id, SerialNumber: "D0000000002U", LifeCycleState: models.Installed}
	require.NoError(t, s.Save(ctx, upd))
	assert.Equal(t, id, upd.ID)
	assert.True(t, before.CreatedAt.Equal(upd.CreatedAt))

	got, ok, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.Installed, got.LifeCycleState)
	assert.Equal(t, "D0000000002U", got.SerialNumber)
	assert.True(t, before.CreatedAt.Equal(got.CreatedAt), "created_at %v -> %v", before.CreatedAt, got.CreatedAt)
	assert.False(t, got.UpdatedAt.Before(before.UpdatedAt))
}

func TestSave_UnknownIDInserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := uuid.NewString()
	require.NoError(t, s.Save(ctx, &models.Device{ID: id, SerialNumber: "D0000000003", LifeCycleState: models.Active}))

	got, ok, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSave_UpdateCollidingSerial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &models.Device{SerialNumber: "DA", LifeCycleState: models.Active}
	b := &models.Device{SerialNumber: "DB", LifeCycleState: models.Active}
	require.NoError(t, s.Save(ctx, a))
	require.NoError(t, s.Save(ctx, b))

	b.SerialNumber = "DA"
	err := s.Save(ctx, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)
}

func TestSave_NilDevice(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Save(context.Background(), nil))
}

func TestFindByID_Missing(t *testing.T) {
	s := newTestStore(t)

	got, ok, err := s.FindByID(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSave_ConcurrentSameSerial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      int
		conflict int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Save(ctx, &models.Device{SerialNumber: "DRACE", LifeCycleState: models.PendingInstall})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, ErrConstraintViolation):
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, n-1, conflict)
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"postgres", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), true},
		{"postgres other", &pgconn.PgError{Code: "23502"}, false},
		{"mysql", fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}), true},
		{"mysql other", &mysql.MySQLError{Number: 1048}, false},
		{"sqlite", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"sqlite not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isUniqueViolation(tc.err))
		})
	}
}
