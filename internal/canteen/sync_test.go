package canteen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/mail"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/avbottsubscription-dev/canteencouponang/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSyncService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemory()
	return NewService(state.New(), mem, &mail.Log{Logger: logger}, nil, logger), mem
}

func TestLoadFirstRunSeedsAdmin(t *testing.T) {
	svc, mem := newSyncService(t)

	svc.Load(context.Background())

	employees := svc.State.Employees()
	require.Len(t, employees, 1)
	admin := employees[0]
	assert.Equal(t, int64(1), admin.ID)
	assert.Equal(t, "Super Admin", admin.Name)
	assert.Equal(t, "admin01", admin.EmployeeID)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	// First run pushes the seed to the remote store.
	snap, err := mem.GetAll(context.Background(), store.ColEmployees)
	require.NoError(t, err)
	assert.Contains(t, snap, "1")
}

func TestLoadRemoteUnavailableDegradesToSeed(t *testing.T) {
	svc, mem := newSyncService(t)
	mem.FailGetAll = errors.New("connection refused")

	svc.Load(context.Background())

	require.Len(t, svc.State.Employees(), 1)
	assert.Equal(t, "Super Admin", svc.State.Employees()[0].Name)
}

func TestLoadDecodesExistingCollections(t *testing.T) {
	svc, mem := newSyncService(t)
	ctx := context.Background()

	emp := domain.Employee{ID: 7, Name: "Alice", EmployeeID: "a7", Role: domain.RoleEmployee, Status: domain.StatusActive}
	doc, err := json.Marshal(emp)
	require.NoError(t, err)
	require.NoError(t, mem.Upsert(ctx, store.ColEmployees, "7", doc))

	coupon := domain.Coupon{CouponID: "CPN-1", Status: domain.CouponIssued, RedemptionCode: "1234", CouponType: domain.CouponBreakfast}
	doc, err = json.Marshal(coupon)
	require.NoError(t, err)
	require.NoError(t, mem.Upsert(ctx, store.ColCoupons, coupon.CouponID, doc))

	menu := domain.DailyMenu{ID: "2026-03-02", BreakfastMenu: "Poha", LunchDinnerMenu: "Rice"}
	doc, err = json.Marshal(menu)
	require.NoError(t, err)
	require.NoError(t, mem.Upsert(ctx, store.ColMenus, menu.ID, doc))

	// One poisoned document must not break the rest.
	require.NoError(t, mem.Upsert(ctx, store.ColCoupons, "bad", store.Document(`{`)))

	svc.Load(ctx)

	require.Len(t, svc.State.Employees(), 1)
	assert.Equal(t, "Alice", svc.State.Employees()[0].Name)
	require.Len(t, svc.State.Coupons(), 1)
	assert.Equal(t, "CPN-1", svc.State.Coupons()[0].CouponID)
	require.Len(t, svc.State.Menus(), 1)
	assert.Equal(t, "Poha", svc.State.Menus()[0].BreakfastMenu)
}

func TestLoadPrimesPunchHistory(t *testing.T) {
	svc, mem := newSyncService(t)
	ctx := context.Background()

	// The remote holds data so Load takes the decode path, not first run.
	emp := domain.Employee{ID: 7, Name: "Alice", EmployeeID: "a7", Role: domain.RoleEmployee, Status: domain.StatusActive}
	doc, err := json.Marshal(emp)
	require.NoError(t, err)
	require.NoError(t, mem.Upsert(ctx, store.ColEmployees, "7", doc))

	base := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ev := domain.PunchEvent{
			ID:         fmt.Sprintf("punch-%d", i),
			EmployeeID: 7,
			ResultType: domain.PunchRedeemed,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		doc, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, mem.Upsert(ctx, store.ColPunchEvents, ev.ID, doc))
	}

	svc.Load(ctx)

	history := svc.State.PunchHistory()
	require.Len(t, history, 3)
	assert.Equal(t, "punch-2", history[0].ID)
	assert.Equal(t, "punch-0", history[2].ID)
	require.NotNil(t, svc.State.LastPunchEvent())
	assert.Equal(t, "punch-2", svc.State.LastPunchEvent().ID)
}

func TestSyncCollectionDiffReplace(t *testing.T) {
	// GIVEN: the remote holds a stale document the local set no longer has
	_, mem := newSyncService(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stale := domain.Coupon{CouponID: "CPN-STALE", Status: domain.CouponIssued}
	doc, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, mem.Upsert(ctx, store.ColCoupons, stale.CouponID, doc))

	local := []domain.Coupon{
		{CouponID: "CPN-A", Status: domain.CouponIssued, RedemptionCode: "1111"},
		{CouponID: "CPN-B", Status: domain.CouponRedeemed, RedemptionCode: "2222"},
	}

	// WHEN: the collection is reconciled
	err = syncCollection(ctx, mem, logger, store.ColCoupons, local,
		func(c domain.Coupon) string { return c.CouponID })
	require.NoError(t, err)

	// THEN: local documents are upserted and the stale one is deleted
	snap, err := mem.GetAll(ctx, store.ColCoupons)
	require.NoError(t, err)
	assert.Len(t, snap, 2)
	assert.Contains(t, snap, "CPN-A")
	assert.Contains(t, snap, "CPN-B")
	assert.NotContains(t, snap, "CPN-STALE")
}

func TestSyncCollectionPartialFailureIsReportedNotRolledBack(t *testing.T) {
	_, mem := newSyncService(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mem.FailUpsert = errors.New("quota exceeded")
	local := []domain.Coupon{{CouponID: "CPN-A", Status: domain.CouponIssued}}

	err := syncCollection(ctx, mem, logger, store.ColCoupons, local,
		func(c domain.Coupon) string { return c.CouponID })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 op(s) failed")
}

func TestSyncCollectionSkipsWhenRemoteUnavailable(t *testing.T) {
	_, mem := newSyncService(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem.FailGetAll = errors.New("connection refused")

	err := syncCollection(context.Background(), mem, logger, store.ColCoupons,
		[]domain.Coupon{{CouponID: "CPN-A"}},
		func(c domain.Coupon) string { return c.CouponID })
	require.Error(t, err)
}

func TestStartRealtimeCouponSnapshotsOverwriteCache(t *testing.T) {
	svc, mem := newSyncService(t)
	ctx := context.Background()
	require.NoError(t, svc.StartRealtime(ctx))

	coupon := domain.Coupon{CouponID: "CPN-K", Status: domain.CouponIssued, RedemptionCode: "4321"}
	doc, err := json.Marshal(coupon)
	require.NoError(t, err)
	require.NoError(t, mem.Upsert(ctx, store.ColCoupons, coupon.CouponID, doc))

	require.Len(t, svc.State.Coupons(), 1)
	assert.Equal(t, "CPN-K", svc.State.Coupons()[0].CouponID)

	// A later snapshot without the coupon wins wholesale.
	require.NoError(t, mem.Delete(ctx, store.ColCoupons, coupon.CouponID))
	assert.Empty(t, svc.State.Coupons())
}

func TestStartRealtimePunchFeedKeepsLatestThirty(t *testing.T) {
	svc, mem := newSyncService(t)
	ctx := context.Background()
	require.NoError(t, svc.StartRealtime(ctx))

	base := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 35; i++ {
		ev := domain.PunchEvent{
			ID:         fmt.Sprintf("punch-%02d", i),
			EmployeeID: 7,
			ResultType: domain.PunchRedeemed,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		doc, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, mem.Upsert(ctx, store.ColPunchEvents, ev.ID, doc))
	}

	history := svc.State.PunchHistory()
	require.Len(t, history, 30)
	assert.Equal(t, "punch-34", history[0].ID, "newest first")
	assert.Equal(t, "punch-05", history[29].ID, "oldest five dropped")

	last := svc.State.LastPunchEvent()
	require.NotNil(t, last)
	assert.Equal(t, "punch-34", last.ID)
}
