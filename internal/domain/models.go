package domain

import "time"

// Enumerations
const (
	RoleAdmin          EmployeeRole = "admin"
	RoleEmployee       EmployeeRole = "employee"
	RoleContractual    EmployeeRole = "contractual employee"
	RoleCanteenManager EmployeeRole = "canteen manager"

	StatusActive      EmployeeStatus = "active"
	StatusDeactivated EmployeeStatus = "deactivated"

	CouponBreakfast   CouponType = "Breakfast"
	CouponLunchDinner CouponType = "Lunch/Dinner"
	CouponSnacks      CouponType = "Snacks"
	CouponBeverage    CouponType = "Beverage"

	CouponIssued   CouponStatus = "issued"
	CouponRedeemed CouponStatus = "redeemed"

	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"

	NotificationNewCoupon    NotificationType = "new_coupon"
	NotificationSystem       NotificationType = "system"
	NotificationGuestRequest NotificationType = "guest_pass_request"

	PunchRedeemed        PunchResult = "redeemed"
	PunchAlreadyRedeemed PunchResult = "already_redeemed"
	PunchNotAvailable    PunchResult = "not_available"
	PunchError           PunchResult = "error"
)

type EmployeeRole string
type EmployeeStatus string
type CouponType string
type CouponStatus string
type RequestStatus string
type NotificationType string
type PunchResult string

// SlotFor maps a coupon type to the canteen serving window used for
// scheduling and reporting. 0 = Breakfast (8-10), 1 = Lunch/Dinner
// (11:30-14). Snacks and beverages fall into the breakfast window.
func SlotFor(t CouponType) int {
	if t == CouponLunchDinner {
		return 1
	}
	return 0
}

type Employee struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email,omitempty"`
	EmployeeID   string         `json:"employeeId"`
	PasswordHash string         `json:"passwordHash"`
	Role         EmployeeRole   `json:"role"`
	Department   string         `json:"department,omitempty"`
	ContractorID *int64         `json:"contractorId,omitempty"`
	Status       EmployeeStatus `json:"status"`
}

type Contractor struct {
	ID           int64  `json:"id"`
	BusinessName string `json:"businessName"`
	ContractorID string `json:"contractorId"`
	PasswordHash string `json:"passwordHash"`
}

// Coupon ownership is one of three shapes: EmployeeID set (direct or
// contractor-assigned), ContractorID set with no EmployeeID (unassigned
// pool coupon), or neither with IsGuestCoupon (minted from an approved
// guest pass request).
type Coupon struct {
	CouponID       string       `json:"couponId"`
	EmployeeID     *int64       `json:"employeeId,omitempty"`
	ContractorID   *int64       `json:"contractorId,omitempty"`
	DateIssued     time.Time    `json:"dateIssued"`
	Status         CouponStatus `json:"status"`
	RedeemDate     *time.Time   `json:"redeemDate"`
	RedemptionCode string       `json:"redemptionCode"`
	CouponType     CouponType   `json:"couponType"`
	Slot           int          `json:"slot"`

	IsGuestCoupon      bool   `json:"isGuestCoupon,omitempty"`
	SharedByEmployeeID *int64 `json:"sharedByEmployeeId,omitempty"`
	GuestName          string `json:"guestName,omitempty"`
	GuestCompany       string `json:"guestCompany,omitempty"`
}

type GuestCouponRequest struct {
	ID                string        `json:"id"`
	EmployeeID        int64         `json:"employeeId"`
	EmployeeName      string        `json:"employeeName"`
	GuestName         string        `json:"guestName"`
	GuestCompany      string        `json:"guestCompany"`
	CouponType        CouponType    `json:"couponType"`
	Status            RequestStatus `json:"status"`
	RequestDate       time.Time     `json:"requestDate"`
	DecisionDate      *time.Time    `json:"decisionDate,omitempty"`
	AdminID           *int64        `json:"adminId,omitempty"`
	RejectionReason   string        `json:"rejectionReason,omitempty"`
	GeneratedCouponID string        `json:"generatedCouponId,omitempty"`
}

// AppNotification is a side-effect record only; it never drives control flow.
// DailyMenu announces what the canteen serves on a given day. The id is
// the calendar date (2006-01-02), one menu per day at most.
type DailyMenu struct {
	ID              string    `json:"id"`
	BreakfastMenu   string    `json:"breakfastMenu"`
	LunchDinnerMenu string    `json:"lunchDinnerMenu"`
	Date            time.Time `json:"date"`
}

type AppNotification struct {
	ID         string           `json:"id"`
	EmployeeID int64            `json:"employeeId"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	IsRead     bool             `json:"isRead"`
	CreatedAt  time.Time        `json:"createdAt"`

	RelatedRequestID    string `json:"relatedRequestId,omitempty"`
	RequesterEmployeeID *int64 `json:"requesterEmployeeId,omitempty"`
	RelatedCouponID     string `json:"relatedCouponId,omitempty"`
}

// PunchEvent is produced by the canteen kiosk device and consumed read-only.
type PunchEvent struct {
	ID         string      `json:"id"`
	EmployeeID int64       `json:"employeeId"`
	ResultType PunchResult `json:"resultType"`
	Message    string      `json:"message"`
	CreatedAt  time.Time   `json:"createdAt"`
}

const (
	PrincipalEmployee   PrincipalKind = "employee"
	PrincipalContractor PrincipalKind = "contractor"
)

type PrincipalKind string

// Principal is the discriminated login identity: exactly one of Employee or
// Contractor is set, decided once at login.
type Principal struct {
	Kind       PrincipalKind `json:"kind"`
	Employee   *Employee     `json:"employee,omitempty"`
	Contractor *Contractor   `json:"contractor,omitempty"`
}

func (p Principal) DisplayName() string {
	switch p.Kind {
	case PrincipalEmployee:
		return p.Employee.Name
	case PrincipalContractor:
		return p.Contractor.BusinessName
	}
	return ""
}
