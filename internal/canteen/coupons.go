package canteen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/store"
)

// Coupon owner kinds for Issue.
const (
	OwnerEmployee   OwnerKind = "employee"
	OwnerContractor OwnerKind = "contractor"
)

type OwnerKind string

// Issue mints count coupons for the owner as a single batch: one shared
// issue timestamp, 4-digit codes drawn from the complement of all
// currently-issued codes. The batch is appended to local state and
// reconciled to the remote store.
func (s *Service) Issue(ctx context.Context, ownerID int64, ownerKind OwnerKind, couponType domain.CouponType, count int) []domain.Coupon {
	taken := s.issuedCodes()
	now := s.Now()
	slot := domain.SlotFor(couponType)

	coupons := make([]domain.Coupon, 0, count)
	for i := 0; i < count; i++ {
		c := domain.Coupon{
			CouponID:       s.newCouponID(),
			DateIssued:     now,
			Status:         domain.CouponIssued,
			RedemptionCode: s.uniqueCode(taken),
			CouponType:     couponType,
			Slot:           slot,
		}
		id := ownerID
		switch ownerKind {
		case OwnerEmployee:
			c.EmployeeID = &id
		case OwnerContractor:
			c.ContractorID = &id
		}
		coupons = append(coupons, c)
	}

	s.State.AppendCoupons(coupons...)
	s.syncCoupons(ctx)
	return coupons
}

// RedeemByCode is the concurrency-critical redemption protocol. The kiosk
// device may redeem directly against the remote store, so the remote copy
// is checked first; only when that check errors does the decision fall back
// to local state.
func (s *Service) RedeemByCode(ctx context.Context, code string) RedeemResult {
	if remote, ok := s.remoteRedeemedCheck(ctx, code); ok {
		return remote
	}

	var coupon *domain.Coupon
	localRedeemed := false
	for _, c := range s.State.Coupons() {
		if c.RedemptionCode != code {
			continue
		}
		if c.Status == domain.CouponIssued {
			cc := c
			coupon = &cc
			break
		}
		localRedeemed = true
	}

	if coupon == nil {
		if localRedeemed {
			return RedeemResult{Status: AlreadyRedeemed, Message: "This coupon has already been redeemed."}
		}
		return RedeemResult{Status: CodeNotFound, Message: "Invalid coupon code."}
	}

	if coupon.IsGuestCoupon {
		return s.redeemGuestCoupon(ctx, coupon)
	}

	if coupon.EmployeeID == nil {
		return RedeemResult{Status: NotAssigned, Message: "This coupon has not been assigned to an employee yet."}
	}

	ownerName := "Unknown"
	if owner, ok := s.State.EmployeeByID(*coupon.EmployeeID); ok {
		if owner.Status == domain.StatusDeactivated {
			return RedeemResult{Status: OwnerDeactivated, Message: "Cannot redeem coupon. Employee account is deactivated."}
		}
		ownerName = owner.Name
	}

	s.markRedeemed(ctx, coupon.CouponID)
	return RedeemResult{Status: Redeemed, Message: fmt.Sprintf("Coupon redeemed successfully for %s.", ownerName)}
}

// remoteRedeemedCheck asks the remote store for the authoritative status of
// the code. It reports (result, true) only when the remote shows the code
// as redeemed with no issued coupon holding it; the local cache is
// reconciled to the remote state before returning. A failed remote call is
// logged and treated as unknown.
func (s *Service) remoteRedeemedCheck(ctx context.Context, code string) (RedeemResult, bool) {
	docs, err := s.Remote.QueryEqual(ctx, store.ColCoupons, "redemptionCode", code)
	if err != nil {
		s.Logger.Warn("remote coupon status check failed, falling back to local state", "code", code, "err", err)
		return RedeemResult{}, false
	}

	var redeemed *domain.Coupon
	for _, doc := range docs {
		var c domain.Coupon
		if err := json.Unmarshal(doc, &c); err != nil {
			s.Logger.Warn("skipping undecodable remote coupon", "err", err)
			continue
		}
		switch c.Status {
		case domain.CouponIssued:
			// A live coupon holds this code; codes are reused after
			// redemption, so an older redeemed document does not apply.
			return RedeemResult{}, false
		case domain.CouponRedeemed:
			cc := c
			redeemed = &cc
		}
	}
	if redeemed == nil {
		return RedeemResult{}, false
	}

	redeemDate := redeemed.RedeemDate
	s.State.UpdateCoupons(func(c *domain.Coupon) {
		if c.CouponID == redeemed.CouponID {
			c.Status = domain.CouponRedeemed
			if redeemDate != nil {
				c.RedeemDate = redeemDate
			}
		}
	})

	if redeemDate != nil {
		return RedeemResult{
			Status:     AlreadyRedeemed,
			Message:    fmt.Sprintf("This coupon has already been redeemed on %s.", redeemDate.Format("2006-01-02 15:04:05")),
			RedeemedAt: redeemDate,
		}, true
	}
	return RedeemResult{Status: AlreadyRedeemed, Message: "This coupon has already been redeemed."}, true
}

func (s *Service) redeemGuestCoupon(ctx context.Context, coupon *domain.Coupon) RedeemResult {
	requesterName := "Unknown"
	if coupon.SharedByEmployeeID != nil {
		if requester, ok := s.State.EmployeeByID(*coupon.SharedByEmployeeID); ok {
			requesterName = requester.Name
		}
	}

	guestInfo := ""
	if coupon.GuestName != "" {
		guestInfo = " for " + coupon.GuestName
		if coupon.GuestCompany != "" {
			guestInfo += " (" + coupon.GuestCompany + ")"
		}
	}

	s.markRedeemed(ctx, coupon.CouponID)
	return RedeemResult{
		Status:  Redeemed,
		Message: fmt.Sprintf("Guest coupon redeemed successfully%s (requested by %s).", guestInfo, requesterName),
	}
}

// markRedeemed flips issued -> redeemed, the only status transition a
// coupon ever makes, and reconciles the collection.
func (s *Service) markRedeemed(ctx context.Context, couponID string) {
	now := s.Now()
	s.State.UpdateCoupons(func(c *domain.Coupon) {
		if c.CouponID == couponID && c.Status == domain.CouponIssued {
			c.Status = domain.CouponRedeemed
			c.RedeemDate = &now
		}
	})
	s.syncCoupons(ctx)
}

// RemoveCoupon deletes a coupon from the ledger. Redeemed coupons are part
// of the audit trail and cannot be removed.
func (s *Service) RemoveCoupon(ctx context.Context, couponID string) Result {
	var found *domain.Coupon
	for _, c := range s.State.Coupons() {
		if c.CouponID == couponID {
			cc := c
			found = &cc
			break
		}
	}
	if found == nil {
		return failure("Coupon not found.")
	}
	if found.Status == domain.CouponRedeemed {
		return failure("Cannot remove a redeemed coupon.")
	}

	s.State.FilterCoupons(func(c domain.Coupon) bool { return c.CouponID != couponID })
	s.syncCoupons(ctx)
	return success(fmt.Sprintf("Coupon %s removed successfully.", couponID))
}

// RemoveLastBatch deletes the employee's most recent batch of still-issued
// coupons. A batch is the set of coupons sharing the exact issue timestamp.
type RemoveBatchResult struct {
	Result
	RemovedCount int `json:"removedCount"`
}

func (s *Service) RemoveLastBatch(ctx context.Context, employeeID int64) RemoveBatchResult {
	coupons := s.State.Coupons()

	var latest *domain.Coupon
	for _, c := range coupons {
		if c.EmployeeID == nil || *c.EmployeeID != employeeID || c.Status != domain.CouponIssued {
			continue
		}
		if latest == nil || c.DateIssued.After(latest.DateIssued) {
			cc := c
			latest = &cc
		}
	}
	if latest == nil {
		return RemoveBatchResult{Result: failure("No unredeemed coupons found for this employee.")}
	}

	batchTime := latest.DateIssued
	removed := 0
	s.State.FilterCoupons(func(c domain.Coupon) bool {
		inBatch := c.EmployeeID != nil && *c.EmployeeID == employeeID &&
			c.Status == domain.CouponIssued && c.DateIssued.Equal(batchTime)
		if inBatch {
			removed++
		}
		return !inBatch
	})

	s.syncCoupons(ctx)
	return RemoveBatchResult{
		Result:       success(fmt.Sprintf("Successfully removed the last batch of %d coupon(s).", removed)),
		RemovedCount: removed,
	}
}
