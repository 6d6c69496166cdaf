package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketcore-backend/internal/dbtest"
)

type fakeLocker struct {
	held    map[string]bool
	err     error
	deleted []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (f *fakeLocker) AcquireOperation(_ context.Context, operation string, _ time.Duration, parts ...string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	key := f.OperationKey(operation, parts...)
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLocker) OperationKey(operation string, parts ...string) string {
	return operation + ":" + strings.Join(parts, ":")
}

func (f *fakeLocker) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.held, k)
		f.deleted = append(f.deleted, k)
	}
	return nil
}

type failingTx struct{}

func (failingTx) WithTx(context.Context, func(tx *gorm.DB) error) error {
	return errors.New("db down")
}

func TestRecordViewDedupesPerUser(t *testing.T) {
	conn := dbtest.OpenSQLite(t, "engagement")
	locks := newFakeLocker()
	engagement := NewEngagement(dbtest.NewClient(conn), NewLedger(), locks, 10*time.Minute, nil)
	product := dbtest.SeedProduct(t, conn, "2.00", 1)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	counted, err := engagement.RecordView(ctx, alice, product.ID)
	require.NoError(t, err)
	assert.True(t, counted)

	counted, err = engagement.RecordView(ctx, alice, product.ID)
	require.NoError(t, err)
	assert.False(t, counted)

	counted, err = engagement.RecordView(ctx, bob, product.ID)
	require.NoError(t, err)
	assert.True(t, counted)

	got := dbtest.ReloadProduct(t, conn, product.ID)
	assert.Equal(t, 2, got.ViewsCount)
	assert.Equal(t, 2, got.PopularityScore)
}

func TestRecordViewCountsWhenDedupeUnavailable(t *testing.T) {
	conn := dbtest.OpenSQLite(t, "engagement")
	locks := newFakeLocker()
	locks.err = errors.New("redis unreachable")
	engagement := NewEngagement(dbtest.NewClient(conn), NewLedger(), locks, time.Minute, nil)
	product := dbtest.SeedProduct(t, conn, "2.00", 1)

	for i := 0; i < 2; i++ {
		counted, err := engagement.RecordView(context.Background(), uuid.New(), product.ID)
		require.NoError(t, err)
		assert.True(t, counted)
	}
	assert.Equal(t, 2, dbtest.ReloadProduct(t, conn, product.ID).ViewsCount)
}

func TestRecordViewReleasesMarkerOnFailure(t *testing.T) {
	locks := newFakeLocker()
	engagement := NewEngagement(failingTx{}, NewLedger(), locks, time.Minute, nil)
	user, product := uuid.New(), uuid.New()

	counted, err := engagement.RecordView(context.Background(), user, product)
	require.Error(t, err)
	assert.False(t, counted)
	assert.Equal(t, []string{locks.OperationKey(viewOperation, user.String(), product.String())}, locks.deleted)
	assert.Empty(t, locks.held)
}

func TestRecordViewWithoutLocker(t *testing.T) {
	conn := dbtest.OpenSQLite(t, "engagement")
	engagement := NewEngagement(dbtest.NewClient(conn), NewLedger(), nil, time.Minute, nil)
	product := dbtest.SeedProduct(t, conn, "2.00", 1)
	user := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := engagement.RecordView(context.Background(), user, product.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, dbtest.ReloadProduct(t, conn, product.ID).ViewsCount)
}
