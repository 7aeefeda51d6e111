package canteen_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/mail"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/avbottsubscription-dev/canteencouponang/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*canteen.Service, *store.Memory, *state.State) {
	t.Helper()
	st := state.New()
	mem := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := canteen.NewService(st, mem, &mail.Log{Logger: logger}, nil, logger)
	return svc, mem, st
}

func addEmployee(st *state.State, id int64, name string, role domain.EmployeeRole) domain.Employee {
	e := domain.Employee{
		ID:         id,
		Name:       name,
		EmployeeID: name,
		Role:       role,
		Status:     domain.StatusActive,
	}
	st.AppendEmployee(e)
	return e
}

func TestIssueBatchSharesTimestampWithUniqueCodes(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 7, "alice", domain.RoleEmployee)

	issued := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return issued }

	batch := svc.Issue(context.Background(), 7, canteen.OwnerEmployee, domain.CouponBreakfast, 26)
	require.Len(t, batch, 26)

	codes := map[string]struct{}{}
	for _, c := range batch {
		assert.True(t, c.DateIssued.Equal(issued), "batch must share one issue timestamp")
		assert.Equal(t, domain.CouponIssued, c.Status)
		assert.Len(t, c.RedemptionCode, 4)
		codes[c.RedemptionCode] = struct{}{}
	}
	assert.Len(t, codes, 26, "codes must be unique within issued coupons")
}

func TestRedeemByCodeSuccess(t *testing.T) {
	svc, mem, st := newTestService(t)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)
	batch := svc.Issue(context.Background(), 7, canteen.OwnerEmployee, domain.CouponBreakfast, 1)

	res := svc.RedeemByCode(context.Background(), batch[0].RedemptionCode)
	require.Equal(t, canteen.Redeemed, res.Status)
	assert.Equal(t, "Coupon redeemed successfully for Alice.", res.Message)

	coupons := st.Coupons()
	require.Len(t, coupons, 1)
	assert.Equal(t, domain.CouponRedeemed, coupons[0].Status)
	require.NotNil(t, coupons[0].RedeemDate)

	// Redemption is reconciled to the remote copy.
	snap, err := mem.GetAll(context.Background(), store.ColCoupons)
	require.NoError(t, err)
	var remote domain.Coupon
	require.NoError(t, json.Unmarshal(snap[batch[0].CouponID], &remote))
	assert.Equal(t, domain.CouponRedeemed, remote.Status)
}

func TestRedeemByCodeSecondAttemptFails(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)
	batch := svc.Issue(context.Background(), 7, canteen.OwnerEmployee, domain.CouponBreakfast, 1)

	first := svc.RedeemByCode(context.Background(), batch[0].RedemptionCode)
	require.Equal(t, canteen.Redeemed, first.Status)

	second := svc.RedeemByCode(context.Background(), batch[0].RedemptionCode)
	assert.Equal(t, canteen.AlreadyRedeemed, second.Status)
}

func TestRedeemByCodeUnknownCode(t *testing.T) {
	svc, _, _ := newTestService(t)

	res := svc.RedeemByCode(context.Background(), "0000")
	assert.Equal(t, canteen.CodeNotFound, res.Status)
	assert.Equal(t, "Invalid coupon code.", res.Message)
}

func TestRedeemByCodeUnassignedPoolCoupon(t *testing.T) {
	svc, _, st := newTestService(t)
	st.AppendContractor(domain.Contractor{ID: 3, BusinessName: "Acme Services"})
	batch := svc.Issue(context.Background(), 3, canteen.OwnerContractor, domain.CouponLunchDinner, 1)

	res := svc.RedeemByCode(context.Background(), batch[0].RedemptionCode)
	assert.Equal(t, canteen.NotAssigned, res.Status)
	assert.Equal(t, "This coupon has not been assigned to an employee yet.", res.Message)
}

func TestRedeemByCodeDeactivatedOwner(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)
	batch := svc.Issue(context.Background(), 7, canteen.OwnerEmployee, domain.CouponBreakfast, 1)

	st.UpdateEmployees(func(e *domain.Employee) { e.Status = domain.StatusDeactivated })

	res := svc.RedeemByCode(context.Background(), batch[0].RedemptionCode)
	assert.Equal(t, canteen.OwnerDeactivated, res.Status)
	assert.Equal(t, "Cannot redeem coupon. Employee account is deactivated.", res.Message)

	assert.Equal(t, domain.CouponIssued, st.Coupons()[0].Status, "coupon must stay issued")
}

func TestRedeemByCodeRemoteAlreadyRedeemed(t *testing.T) {
	// GIVEN: the kiosk redeemed the coupon directly against the remote store
	// while the local cache still shows it as issued.
	svc, mem, st := newTestService(t)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)
	batch := svc.Issue(context.Background(), 7, canteen.OwnerEmployee, domain.CouponBreakfast, 1)

	redeemedAt := time.Date(2026, time.March, 2, 12, 30, 0, 0, time.UTC)
	remote := batch[0]
	remote.Status = domain.CouponRedeemed
	remote.RedeemDate = &redeemedAt
	doc, err := json.Marshal(remote)
	require.NoError(t, err)
	require.NoError(t, mem.Upsert(context.Background(), store.ColCoupons, remote.CouponID, doc))

	// WHEN: a local redemption attempts the same code.
	res := svc.RedeemByCode(context.Background(), batch[0].RedemptionCode)

	// THEN: the remote decision wins and the cache is reconciled.
	require.Equal(t, canteen.AlreadyRedeemed, res.Status)
	assert.Contains(t, res.Message, "already been redeemed on")
	require.NotNil(t, res.RedeemedAt)
	assert.True(t, res.RedeemedAt.Equal(redeemedAt))
	assert.Equal(t, domain.CouponRedeemed, st.Coupons()[0].Status)
}

func TestRedeemByCodeRemoteFailureFallsBackToLocal(t *testing.T) {
	svc, mem, st := newTestService(t)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)
	batch := svc.Issue(context.Background(), 7, canteen.OwnerEmployee, domain.CouponBreakfast, 1)

	mem.FailQuery = errors.New("connection refused")

	res := svc.RedeemByCode(context.Background(), batch[0].RedemptionCode)
	require.Equal(t, canteen.Redeemed, res.Status)
	assert.Equal(t, domain.CouponRedeemed, st.Coupons()[0].Status)
}

func TestCodeReuseAfterRedemption(t *testing.T) {
	// A redeemed coupon releases its code; a remote document holding the old
	// redeemed copy must not block a freshly issued coupon with the same code.
	svc, _, st := newTestService(t)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)

	// Pin the 4-digit draw while keeping coupon ids distinct.
	seq := 0
	svc.RandInt = func(n int) int {
		if n == 9000 {
			return 0
		}
		seq++
		return seq % n
	}
	first := svc.Issue(context.Background(), 7, canteen.OwnerEmployee, domain.CouponBreakfast, 1)
	require.Equal(t, canteen.Redeemed, svc.RedeemByCode(context.Background(), first[0].RedemptionCode).Status)

	second := svc.Issue(context.Background(), 7, canteen.OwnerEmployee, domain.CouponBreakfast, 1)
	require.Equal(t, first[0].RedemptionCode, second[0].RedemptionCode)

	res := svc.RedeemByCode(context.Background(), second[0].RedemptionCode)
	assert.Equal(t, canteen.Redeemed, res.Status)
	assert.Equal(t, 2, st.TotalRedeemedCoupons())
}

func TestRemoveCoupon(t *testing.T) {
	svc, mem, st := newTestService(t)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)
	batch := svc.Issue(context.Background(), 7, canteen.OwnerEmployee, domain.CouponBreakfast, 2)

	res := svc.RemoveCoupon(context.Background(), "CPN-MISSING")
	assert.False(t, res.Success)
	assert.Equal(t, "Coupon not found.", res.Message)

	svc.RedeemByCode(context.Background(), batch[0].RedemptionCode)
	res = svc.RemoveCoupon(context.Background(), batch[0].CouponID)
	assert.False(t, res.Success)
	assert.Equal(t, "Cannot remove a redeemed coupon.", res.Message)

	res = svc.RemoveCoupon(context.Background(), batch[1].CouponID)
	require.True(t, res.Success)
	assert.Len(t, st.Coupons(), 1)

	snap, err := mem.GetAll(context.Background(), store.ColCoupons)
	require.NoError(t, err)
	_, exists := snap[batch[1].CouponID]
	assert.False(t, exists, "removed coupon must be deleted remotely")
}

func TestRemoveLastBatch(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)

	first := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return first }
	svc.Issue(context.Background(), 7, canteen.OwnerEmployee, domain.CouponBreakfast, 3)

	second := first.Add(48 * time.Hour)
	svc.Now = func() time.Time { return second }
	svc.Issue(context.Background(), 7, canteen.OwnerEmployee, domain.CouponBreakfast, 2)

	res := svc.RemoveLastBatch(context.Background(), 7)
	require.True(t, res.Success)
	assert.Equal(t, 2, res.RemovedCount)
	assert.Equal(t, "Successfully removed the last batch of 2 coupon(s).", res.Message)

	remaining := st.Coupons()
	require.Len(t, remaining, 3)
	for _, c := range remaining {
		assert.True(t, c.DateIssued.Equal(first))
	}
}

func TestRemoveLastBatchNoIssuedCoupons(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)

	res := svc.RemoveLastBatch(context.Background(), 7)
	assert.False(t, res.Success)
	assert.Equal(t, "No unredeemed coupons found for this employee.", res.Message)
}
