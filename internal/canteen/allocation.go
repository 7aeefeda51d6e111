package canteen

import (
	"context"
	"fmt"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
)

// Monthly entitlements per coupon type for permanent employees. Contractual
// employees receive coupons only through contractor pool assignment, which
// carries no monthly cap.
var monthlyLimits = map[domain.CouponType]int{
	domain.CouponLunchDinner: 24,
	domain.CouponBreakfast:   26,
}

const maxPoolQuantity = 500

// GenerateForEmployee mints a full monthly batch for a permanent employee.
// Generation is blocked while any coupon of the same type issued this
// calendar month remains unredeemed: the employee must exhaust a batch
// before a new one is created.
func (s *Service) GenerateForEmployee(ctx context.Context, employeeID int64, couponType domain.CouponType) Result {
	employee, ok := s.State.EmployeeByID(employeeID)
	if !ok {
		return failure("Employee not found.")
	}
	if employee.Role != domain.RoleEmployee {
		return failure("This function is only for permanent employees. Use the Contractors tab for contractual staff.")
	}

	limit := monthlyLimits[couponType]
	if limit == 0 {
		return failure(fmt.Sprintf("No monthly limit defined for %s coupons for this employee role.", couponType))
	}

	now := s.Now()
	year, month := now.Year(), now.Month()
	for _, c := range s.State.Coupons() {
		if c.EmployeeID == nil || *c.EmployeeID != employeeID || c.CouponType != couponType {
			continue
		}
		if c.DateIssued.Year() == year && c.DateIssued.Month() == month && c.Status == domain.CouponIssued {
			return failure(fmt.Sprintf("Employee must redeem all existing %s coupons for this month before new ones can be generated.", couponType))
		}
	}

	s.Issue(ctx, employeeID, OwnerEmployee, couponType, limit)

	s.Mailer.NotifyCouponsIssued(employee, limit, couponType)
	s.notify(ctx, domain.AppNotification{
		EmployeeID: employeeID,
		Message:    fmt.Sprintf("You have received %d new %s coupon(s).", limit, couponType),
		Type:       domain.NotificationNewCoupon,
	})

	return success(fmt.Sprintf("%d %s coupons generated successfully for %s.", limit, couponType, employee.Name))
}

// GenerateForContractor creates unassigned pool coupons owned by the
// contractor. Pool coupons are standing inventory with no monthly gate.
func (s *Service) GenerateForContractor(ctx context.Context, contractorID int64, couponType domain.CouponType, quantity int) Result {
	contractor, ok := s.State.ContractorByID(contractorID)
	if !ok {
		return failure("Contractor not found.")
	}
	if quantity < 1 || quantity > maxPoolQuantity {
		return failure(fmt.Sprintf("Quantity must be between 1 and %d.", maxPoolQuantity))
	}

	s.Issue(ctx, contractorID, OwnerContractor, couponType, quantity)
	return success(fmt.Sprintf("%d %s coupons generated for %s.", quantity, couponType, contractor.BusinessName))
}

// AssignToEmployee consumes up to quantity unassigned issued coupons from
// the contractor's pool and sets their owner. Assignment accounting is
// atomic against the local state: the assigned set is fixed before any
// coupon is mutated, so no coupon can be double-assigned.
func (s *Service) AssignToEmployee(ctx context.Context, contractorID, employeeID int64, couponType domain.CouponType, quantity int) Result {
	if quantity < 1 {
		return failure("Quantity must be at least 1.")
	}

	var available []string
	for _, c := range s.State.Coupons() {
		if c.ContractorID != nil && *c.ContractorID == contractorID &&
			c.CouponType == couponType && c.Status == domain.CouponIssued && c.EmployeeID == nil {
			available = append(available, c.CouponID)
		}
	}
	if len(available) < quantity {
		return failure(fmt.Sprintf("Not enough available %s coupons. You have %d, but tried to assign %d.", couponType, len(available), quantity))
	}

	employee, ok := s.State.EmployeeByID(employeeID)
	if !ok {
		return failure("Employee not found.")
	}

	assigned := map[string]struct{}{}
	for _, id := range available[:quantity] {
		assigned[id] = struct{}{}
	}
	s.State.UpdateCoupons(func(c *domain.Coupon) {
		if _, ok := assigned[c.CouponID]; ok && c.EmployeeID == nil {
			id := employeeID
			c.EmployeeID = &id
		}
	})

	s.notify(ctx, domain.AppNotification{
		EmployeeID: employeeID,
		Message:    fmt.Sprintf("You have received %d new %s coupon(s) from your contractor.", quantity, couponType),
		Type:       domain.NotificationNewCoupon,
	})
	s.syncCoupons(ctx)

	return success(fmt.Sprintf("%d %s coupons assigned successfully to %s.", quantity, couponType, employee.Name))
}
