// Package state holds the local advisory cache of every collection. The
// remote replicated store is the cross-client source of truth; realtime
// snapshots overwrite these collections wholesale, so readers always get
// copies and writers go through the mutation API.
package state

import (
	"sync"
	"time"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
)

type State struct {
	mu             sync.RWMutex
	employees      []domain.Employee
	coupons        []domain.Coupon
	contractors    []domain.Contractor
	notifications  []domain.AppNotification
	guestRequests  []domain.GuestCouponRequest
	menus          []domain.DailyMenu
	punchHistory   []domain.PunchEvent
	lastPunchEvent *domain.PunchEvent
}

func New() *State {
	return &State{}
}

// Read accessors. All return copies.

func (s *State) Employees() []domain.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Employee(nil), s.employees...)
}

func (s *State) Coupons() []domain.Coupon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Coupon(nil), s.coupons...)
}

func (s *State) Contractors() []domain.Contractor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Contractor(nil), s.contractors...)
}

func (s *State) Notifications() []domain.AppNotification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AppNotification(nil), s.notifications...)
}

func (s *State) GuestRequests() []domain.GuestCouponRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.GuestCouponRequest(nil), s.guestRequests...)
}

func (s *State) Menus() []domain.DailyMenu {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DailyMenu(nil), s.menus...)
}

func (s *State) MenuByID(id string) (domain.DailyMenu, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.menus {
		if m.ID == id {
			return m, true
		}
	}
	return domain.DailyMenu{}, false
}

func (s *State) PunchHistory() []domain.PunchEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PunchEvent(nil), s.punchHistory...)
}

func (s *State) LastPunchEvent() *domain.PunchEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastPunchEvent == nil {
		return nil
	}
	ev := *s.lastPunchEvent
	return &ev
}

func (s *State) EmployeeByID(id int64) (domain.Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Employee{}, false
}

func (s *State) ContractorByID(id int64) (domain.Contractor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contractors {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Contractor{}, false
}

// Dashboard totals.

func (s *State) TotalIssuedCoupons() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.coupons)
}

func (s *State) TotalRedeemedCoupons() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.coupons {
		if c.Status == domain.CouponRedeemed {
			n++
		}
	}
	return n
}

func (s *State) TodaysIssuedCoupons(now time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, m, d := now.Date()
	n := 0
	for _, c := range s.coupons {
		cy, cm, cd := c.DateIssued.Date()
		if cy == y && cm == m && cd == d {
			n++
		}
	}
	return n
}

func (s *State) TodaysRedeemedCoupons(now time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, m, d := now.Date()
	n := 0
	for _, c := range s.coupons {
		if c.Status != domain.CouponRedeemed || c.RedeemDate == nil {
			continue
		}
		ry, rm, rd := c.RedeemDate.Date()
		if ry == y && rm == m && rd == d {
			n++
		}
	}
	return n
}

// Mutation API. Used by the core and the sync layer only.

func (s *State) SetEmployees(employees []domain.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = employees
}

func (s *State) SetCoupons(coupons []domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons = coupons
}

func (s *State) SetContractors(contractors []domain.Contractor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contractors = contractors
}

func (s *State) SetNotifications(notifications []domain.AppNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = notifications
}

func (s *State) SetGuestRequests(requests []domain.GuestCouponRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guestRequests = requests
}

func (s *State) SetMenus(menus []domain.DailyMenu) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus = menus
}

// UpsertMenu replaces the menu sharing the same id or appends a new one.
func (s *State) UpsertMenu(menu domain.DailyMenu) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.menus {
		if s.menus[i].ID == menu.ID {
			s.menus[i] = menu
			return
		}
	}
	s.menus = append(s.menus, menu)
}

func (s *State) SetPunchEvents(events []domain.PunchEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.punchHistory = events
	if len(events) == 0 {
		s.lastPunchEvent = nil
		return
	}
	ev := events[0]
	s.lastPunchEvent = &ev
}

// UpdateEmployees applies fn to every employee in place.
func (s *State) UpdateEmployees(fn func(*domain.Employee)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.employees {
		fn(&s.employees[i])
	}
}

// UpdateCoupons applies fn to every coupon in place.
func (s *State) UpdateCoupons(fn func(*domain.Coupon)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.coupons {
		fn(&s.coupons[i])
	}
}

// UpdateContractors applies fn to every contractor in place.
func (s *State) UpdateContractors(fn func(*domain.Contractor)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.contractors {
		fn(&s.contractors[i])
	}
}

// UpdateGuestRequests applies fn to every guest request in place.
func (s *State) UpdateGuestRequests(fn func(*domain.GuestCouponRequest)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.guestRequests {
		fn(&s.guestRequests[i])
	}
}

// UpdateNotifications applies fn to every notification in place.
func (s *State) UpdateNotifications(fn func(*domain.AppNotification)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		fn(&s.notifications[i])
	}
}

func (s *State) AppendEmployee(e domain.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = append(s.employees, e)
}

func (s *State) AppendContractor(c domain.Contractor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contractors = append(s.contractors, c)
}

func (s *State) AppendCoupons(coupons ...domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons = append(s.coupons, coupons...)
}

func (s *State) PrependGuestRequest(r domain.GuestCouponRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guestRequests = append([]domain.GuestCouponRequest{r}, s.guestRequests...)
}

func (s *State) PrependNotifications(notifs ...domain.AppNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(notifs, s.notifications...)
}

// FilterEmployees keeps employees for which keep returns true.
func (s *State) FilterEmployees(keep func(domain.Employee) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.employees[:0]
	for _, e := range s.employees {
		if keep(e) {
			out = append(out, e)
		}
	}
	s.employees = out
}

// FilterCoupons keeps coupons for which keep returns true.
func (s *State) FilterCoupons(keep func(domain.Coupon) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.coupons[:0]
	for _, c := range s.coupons {
		if keep(c) {
			out = append(out, c)
		}
	}
	s.coupons = out
}

// FilterContractors keeps contractors for which keep returns true.
func (s *State) FilterContractors(keep func(domain.Contractor) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.contractors[:0]
	for _, c := range s.contractors {
		if keep(c) {
			out = append(out, c)
		}
	}
	s.contractors = out
}

// FilterNotifications keeps notifications for which keep returns true.
func (s *State) FilterNotifications(keep func(domain.AppNotification) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notifications[:0]
	for _, n := range s.notifications {
		if keep(n) {
			out = append(out, n)
		}
	}
	s.notifications = out
}
