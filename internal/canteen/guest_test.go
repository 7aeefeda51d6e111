package canteen_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestGuestPassValidation(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)

	for _, tc := range []struct{ name, company string }{
		{"", ""},
		{"  ", "Acme"},
		{"Bob", "   "},
	} {
		res := svc.RequestGuestPass(context.Background(), 7, tc.name, tc.company, domain.CouponLunchDinner)
		require.False(t, res.Success)
		assert.Equal(t, "Please enter guest full name and company.", res.Message)
	}
}

func TestRequestGuestPassNotifiesAdmins(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 1, "Root", domain.RoleAdmin)
	addEmployee(st, 2, "Boss", domain.RoleAdmin)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)

	res := svc.RequestGuestPass(context.Background(), 7, "Bob", "Acme", domain.CouponLunchDinner)
	require.True(t, res.Success)

	requests := svc.PendingGuestRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, domain.RequestPending, requests[0].Status)
	assert.Equal(t, "Alice", requests[0].EmployeeName)

	for _, adminID := range []int64{1, 2} {
		notifs := svc.NotificationsFor(adminID)
		require.Len(t, notifs, 1)
		assert.Equal(t, "Alice requested a Lunch/Dinner guest pass for Bob (Acme).", notifs[0].Message)
		assert.Equal(t, domain.NotificationGuestRequest, notifs[0].Type)
		assert.Equal(t, requests[0].ID, notifs[0].RelatedRequestID)
	}
}

func TestRequestGuestPassDailyLimit(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)
	svc.Now = func() time.Time { return time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC) }

	for i := 0; i < 5; i++ {
		res := svc.RequestGuestPass(context.Background(), 7, fmt.Sprintf("Guest %d", i), "Acme", domain.CouponLunchDinner)
		require.True(t, res.Success)
	}

	res := svc.RequestGuestPass(context.Background(), 7, "Guest 6", "Acme", domain.CouponLunchDinner)
	require.False(t, res.Success)
	assert.Equal(t, "You have reached your daily limit of 5 Lunch/Dinner guest pass requests.", res.Message)

	// The cap is per coupon type.
	other := svc.RequestGuestPass(context.Background(), 7, "Guest 6", "Acme", domain.CouponBreakfast)
	assert.True(t, other.Success)

	// And resets the next day.
	svc.Now = func() time.Time { return time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC) }
	nextDay := svc.RequestGuestPass(context.Background(), 7, "Guest 7", "Acme", domain.CouponLunchDinner)
	assert.True(t, nextDay.Success)
}

func TestApproveGuestRequestMintsCoupon(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 1, "Root", domain.RoleAdmin)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)

	require.True(t, svc.RequestGuestPass(context.Background(), 7, "Bob", "Acme", domain.CouponLunchDinner).Success)
	requestID := svc.PendingGuestRequests()[0].ID

	res := svc.ApproveGuestRequest(context.Background(), requestID, 1)
	require.True(t, res.Success)

	processed := svc.ProcessedGuestRequests()
	require.Len(t, processed, 1)
	request := processed[0]
	assert.Equal(t, domain.RequestApproved, request.Status)
	require.NotNil(t, request.AdminID)
	assert.Equal(t, int64(1), *request.AdminID)
	require.NotNil(t, request.DecisionDate)

	coupons := st.Coupons()
	require.Len(t, coupons, 1)
	coupon := coupons[0]
	assert.Equal(t, request.GeneratedCouponID, coupon.CouponID)
	assert.True(t, coupon.IsGuestCoupon)
	assert.Equal(t, "Bob", coupon.GuestName)
	assert.Equal(t, "Acme", coupon.GuestCompany)
	require.NotNil(t, coupon.SharedByEmployeeID)
	assert.Equal(t, int64(7), *coupon.SharedByEmployeeID)
	assert.Nil(t, coupon.EmployeeID)

	notifs := svc.NotificationsFor(7)
	require.Len(t, notifs, 1)
	assert.Contains(t, notifs[0].Message, "has been approved. Coupon code: "+coupon.RedemptionCode)
}

func TestApproveGuestRequestIsTerminal(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 1, "Root", domain.RoleAdmin)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)
	require.True(t, svc.RequestGuestPass(context.Background(), 7, "Bob", "Acme", domain.CouponLunchDinner).Success)
	requestID := svc.PendingGuestRequests()[0].ID

	require.True(t, svc.ApproveGuestRequest(context.Background(), requestID, 1).Success)

	again := svc.ApproveGuestRequest(context.Background(), requestID, 1)
	require.False(t, again.Success)
	assert.Equal(t, "This request is already processed.", again.Message)

	reject := svc.RejectGuestRequest(context.Background(), requestID, 1, "late")
	require.False(t, reject.Success)
	assert.Equal(t, "This request is already processed.", reject.Message)

	assert.Len(t, st.Coupons(), 1, "no second coupon minted")
}

func TestRejectGuestRequest(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 1, "Root", domain.RoleAdmin)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)
	require.True(t, svc.RequestGuestPass(context.Background(), 7, "Bob", "Acme", domain.CouponLunchDinner).Success)
	requestID := svc.PendingGuestRequests()[0].ID

	res := svc.RejectGuestRequest(context.Background(), requestID, 1, "Visitors are not allowed this week")
	require.True(t, res.Success)

	request := svc.ProcessedGuestRequests()[0]
	assert.Equal(t, domain.RequestRejected, request.Status)
	assert.Equal(t, "Visitors are not allowed this week", request.RejectionReason)
	assert.Empty(t, request.GeneratedCouponID)
	assert.Empty(t, st.Coupons())

	notifs := svc.NotificationsFor(7)
	require.Len(t, notifs, 1)
	assert.Equal(t, "Your guest pass request for Bob (Acme) for Lunch/Dinner was rejected. Reason: Visitors are not allowed this week", notifs[0].Message)
}

func TestRedeemGuestCoupon(t *testing.T) {
	svc, _, st := newTestService(t)
	addEmployee(st, 1, "Root", domain.RoleAdmin)
	addEmployee(st, 7, "Alice", domain.RoleEmployee)
	require.True(t, svc.RequestGuestPass(context.Background(), 7, "Bob", "Acme", domain.CouponLunchDinner).Success)
	require.True(t, svc.ApproveGuestRequest(context.Background(), svc.PendingGuestRequests()[0].ID, 1).Success)

	coupon := st.Coupons()[0]
	res := svc.RedeemByCode(context.Background(), coupon.RedemptionCode)
	require.Equal(t, canteen.Redeemed, res.Status)
	assert.Equal(t, "Guest coupon redeemed successfully for Bob (Acme) (requested by Alice).", res.Message)

	second := svc.RedeemByCode(context.Background(), coupon.RedemptionCode)
	assert.Equal(t, canteen.AlreadyRedeemed, second.Status)
}
