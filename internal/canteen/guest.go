package canteen

import (
	"context"
	"fmt"
	"strings"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
)

// guestPassDailyLimit caps requests per employee and coupon type per day,
// counted over pending and processed requests alike.
const guestPassDailyLimit = 5

// RequestGuestPass files a guest pass request and fans a notification out
// to every admin.
func (s *Service) RequestGuestPass(ctx context.Context, employeeID int64, guestName, guestCompany string, couponType domain.CouponType) Result {
	employee, ok := s.State.EmployeeByID(employeeID)
	if !ok {
		return failure("Employee not found.")
	}

	guestName = strings.TrimSpace(guestName)
	guestCompany = strings.TrimSpace(guestCompany)
	if guestName == "" || guestCompany == "" {
		return failure("Please enter guest full name and company.")
	}

	now := s.Now()
	y, m, d := now.Date()
	todays := 0
	for _, r := range s.State.GuestRequests() {
		if r.EmployeeID != employeeID || r.CouponType != couponType {
			continue
		}
		ry, rm, rd := r.RequestDate.Date()
		if ry == y && rm == m && rd == d {
			todays++
		}
	}
	if todays >= guestPassDailyLimit {
		return failure(fmt.Sprintf("You have reached your daily limit of %d %s guest pass requests.", guestPassDailyLimit, couponType))
	}

	request := domain.GuestCouponRequest{
		ID:           s.newGuestRequestID(),
		EmployeeID:   employeeID,
		EmployeeName: employee.Name,
		GuestName:    guestName,
		GuestCompany: guestCompany,
		CouponType:   couponType,
		Status:       domain.RequestPending,
		RequestDate:  now,
	}
	s.State.PrependGuestRequest(request)

	requesterID := employeeID
	for _, admin := range s.State.Employees() {
		if admin.Role != domain.RoleAdmin {
			continue
		}
		s.notify(ctx, domain.AppNotification{
			EmployeeID:          admin.ID,
			Message:             fmt.Sprintf("%s requested a %s guest pass for %s (%s).", employee.Name, couponType, guestName, guestCompany),
			Type:                domain.NotificationGuestRequest,
			RelatedRequestID:    request.ID,
			RequesterEmployeeID: &requesterID,
		})
	}

	s.syncGuestRequests(ctx)
	return success("Guest pass request has been sent to admin for approval. You will be notified once it is processed.")
}

// ApproveGuestRequest mints a guest coupon for a pending request, links it,
// and notifies the requester with the redemption code. The request becomes
// terminally approved; a second decision of either kind is rejected.
func (s *Service) ApproveGuestRequest(ctx context.Context, requestID string, adminID int64) Result {
	request, ok := s.guestRequestByID(requestID)
	if !ok {
		return failure("Guest pass request not found.")
	}
	if request.Status != domain.RequestPending {
		return failure("This request is already processed.")
	}

	now := s.Now()
	taken := s.issuedCodes()
	sharedBy := request.EmployeeID
	coupon := domain.Coupon{
		CouponID:           s.newCouponID(),
		DateIssued:         now,
		Status:             domain.CouponIssued,
		RedemptionCode:     s.uniqueCode(taken),
		CouponType:         request.CouponType,
		Slot:               domain.SlotFor(request.CouponType),
		IsGuestCoupon:      true,
		SharedByEmployeeID: &sharedBy,
		GuestName:          request.GuestName,
		GuestCompany:       request.GuestCompany,
	}
	s.State.AppendCoupons(coupon)

	admin := adminID
	s.State.UpdateGuestRequests(func(r *domain.GuestCouponRequest) {
		if r.ID == requestID {
			r.Status = domain.RequestApproved
			r.DecisionDate = &now
			r.AdminID = &admin
			r.GeneratedCouponID = coupon.CouponID
		}
	})

	requesterID := request.EmployeeID
	s.notify(ctx, domain.AppNotification{
		EmployeeID: request.EmployeeID,
		Message: fmt.Sprintf("Your guest pass request for %s (%s) for %s has been approved. Coupon code: %s.",
			request.GuestName, request.GuestCompany, request.CouponType, coupon.RedemptionCode),
		Type:                domain.NotificationSystem,
		RelatedRequestID:    requestID,
		RelatedCouponID:     coupon.CouponID,
		RequesterEmployeeID: &requesterID,
	})

	s.syncCoupons(ctx)
	s.syncGuestRequests(ctx)
	return success("Guest pass request approved and guest coupon generated.")
}

// RejectGuestRequest declines a pending request with an optional reason.
func (s *Service) RejectGuestRequest(ctx context.Context, requestID string, adminID int64, reason string) Result {
	request, ok := s.guestRequestByID(requestID)
	if !ok {
		return failure("Guest pass request not found.")
	}
	if request.Status != domain.RequestPending {
		return failure("This request is already processed.")
	}

	now := s.Now()
	admin := adminID
	s.State.UpdateGuestRequests(func(r *domain.GuestCouponRequest) {
		if r.ID == requestID {
			r.Status = domain.RequestRejected
			r.DecisionDate = &now
			r.AdminID = &admin
			r.RejectionReason = reason
		}
	})

	message := fmt.Sprintf("Your guest pass request for %s (%s) for %s was rejected.",
		request.GuestName, request.GuestCompany, request.CouponType)
	if reason != "" {
		message += " Reason: " + reason
	}
	requesterID := request.EmployeeID
	s.notify(ctx, domain.AppNotification{
		EmployeeID:          request.EmployeeID,
		Message:             message,
		Type:                domain.NotificationSystem,
		RelatedRequestID:    requestID,
		RequesterEmployeeID: &requesterID,
	})

	s.syncGuestRequests(ctx)
	return success("Guest pass request rejected.")
}

// PendingGuestRequests lists requests still awaiting a decision.
func (s *Service) PendingGuestRequests() []domain.GuestCouponRequest {
	var out []domain.GuestCouponRequest
	for _, r := range s.State.GuestRequests() {
		if r.Status == domain.RequestPending {
			out = append(out, r)
		}
	}
	return out
}

// ProcessedGuestRequests lists decided requests.
func (s *Service) ProcessedGuestRequests() []domain.GuestCouponRequest {
	var out []domain.GuestCouponRequest
	for _, r := range s.State.GuestRequests() {
		if r.Status != domain.RequestPending {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) guestRequestByID(id string) (domain.GuestCouponRequest, bool) {
	for _, r := range s.State.GuestRequests() {
		if r.ID == id {
			return r, true
		}
	}
	return domain.GuestCouponRequest{}, false
}
