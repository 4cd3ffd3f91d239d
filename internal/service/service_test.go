package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"MemoGallery/internal/repo"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testClock выдаёт возрастающее время, по секунде на вызов.
type testClock struct{ n atomic.Int64 }

func (c *testClock) Now() time.Time {
	return time.UnixMilli(1_700_000_000_000 + c.n.Add(1)*1000)
}

// newTestGallery открывает галерею на временном файле SQLite.
func newTestGallery(t *testing.T, opts ...Option) *Gallery {
	t.Helper()
	conn := repo.NewConn(filepath.Join(t.TempDir(), "gallery.db"), zap.NewNop().Sugar())
	t.Cleanup(func() { _ = conn.Close() })

	clock := &testClock{}
	base := []Option{WithClock(clock.Now), WithColorPicker(func(int) int { return 0 })}
	g := NewGallery(conn, zap.NewNop().Sugar(), append(base, opts...)...)
	require.NoError(t, g.Open(context.Background()))
	return g
}

func testDB(t *testing.T, g *Gallery) *gorm.DB {
	t.Helper()
	db, err := g.conn.DB(context.Background())
	require.NoError(t, err)
	return db
}

// failOn регистрирует callback, который роняет операцию kind ("create", "update",
// "delete") над table, пока flag взведён. match дополнительно сужает условие.
func failOn(t *testing.T, db *gorm.DB, kind, table string, flag *atomic.Bool, match func(tx *gorm.DB) bool) {
	t.Helper()
	fn := func(tx *gorm.DB) {
		if !flag.Load() || tx.Statement.Table != table {
			return
		}
		if match != nil && !match(tx) {
			return
		}
		_ = tx.AddError(errors.New("injected failure"))
	}
	name := "test:fail_" + kind + "_" + table
	var err error
	switch kind {
	case "create":
		err = db.Callback().Create().After("gorm:create").Register(name, fn)
	case "update":
		err = db.Callback().Update().After("gorm:update").Register(name, fn)
	case "delete":
		err = db.Callback().Delete().After("gorm:delete").Register(name, fn)
	default:
		t.Fatalf("unknown callback kind %q", kind)
	}
	require.NoError(t, err)
}

func varsContain(v string) func(tx *gorm.DB) bool {
	return func(tx *gorm.DB) bool {
		for _, arg := range tx.Statement.Vars {
			if s, ok := arg.(string); ok && s == v {
				return true
			}
		}
		return false
	}
}

func repoConnEmpty() *repo.Conn {
	return repo.NewConn("", zap.NewNop().Sugar())
}
