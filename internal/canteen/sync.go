package canteen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Load fetches every collection from the remote store into local state. A
// completely empty remote is treated as first run: the local seed is
// written back. If the remote is unreachable the service degrades to the
// local seed; reads stay available and writes will reconcile later.
func (s *Service) Load(ctx context.Context) {
	employees, errEmp := s.Remote.GetAll(ctx, store.ColEmployees)
	coupons, errCpn := s.Remote.GetAll(ctx, store.ColCoupons)
	contractors, errCon := s.Remote.GetAll(ctx, store.ColContractors)
	notifications, errNtf := s.Remote.GetAll(ctx, store.ColNotifications)
	requests, errReq := s.Remote.GetAll(ctx, store.ColGuestRequests)
	menus, errMnu := s.Remote.GetAll(ctx, store.ColMenus)

	if err := errors.Join(errEmp, errCpn, errCon, errNtf, errReq, errMnu); err != nil {
		s.Logger.Warn("remote store unavailable, starting from local seed", "err", err)
		s.seed()
		return
	}

	firstRun := len(employees) == 0 && len(coupons) == 0 && len(contractors) == 0 &&
		len(notifications) == 0 && len(requests) == 0 && len(menus) == 0

	if firstRun {
		s.seed()
		s.SyncAll(ctx)
		return
	}

	s.State.SetEmployees(decodeSlice[domain.Employee](employees, s.Logger))
	s.State.SetCoupons(decodeSlice[domain.Coupon](coupons, s.Logger))
	s.State.SetContractors(decodeSlice[domain.Contractor](contractors, s.Logger))
	s.State.SetNotifications(decodeSlice[domain.AppNotification](notifications, s.Logger))
	s.State.SetGuestRequests(decodeSlice[domain.GuestCouponRequest](requests, s.Logger))
	s.State.SetMenus(decodeSlice[domain.DailyMenu](menus, s.Logger))
	s.loadPunchHistory(ctx)
}

// loadPunchHistory primes the kiosk feed cache; the realtime subscription
// keeps it current afterwards.
func (s *Service) loadPunchHistory(ctx context.Context) {
	docs, err := s.Remote.Latest(ctx, store.ColPunchEvents, "createdAt", punchHistoryLimit)
	if err != nil {
		s.Logger.Warn("punch history unavailable", "err", err)
		return
	}
	events := make([]domain.PunchEvent, 0, len(docs))
	for _, doc := range docs {
		var ev domain.PunchEvent
		if err := json.Unmarshal(doc, &ev); err != nil {
			s.Logger.Warn("skipping undecodable punch event", "err", err)
			continue
		}
		events = append(events, ev)
	}
	s.State.SetPunchEvents(events)
}

// seed installs the bootstrap admin account on an empty store.
func (s *Service) seed() {
	hash, err := bcrypt.GenerateFromPassword([]byte("superadmin"), bcrypt.DefaultCost)
	if err != nil {
		s.Logger.Error("seed admin hash failed", "err", err)
		return
	}
	s.State.SetEmployees([]domain.Employee{{
		ID:           1,
		Name:         "Super Admin",
		EmployeeID:   "admin01",
		Email:        "superadmin@canteen.com",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Department:   "System",
		Status:       domain.StatusActive,
	}})
}

// StartRealtime subscribes to the coupon and punch-event feeds. Each
// snapshot overwrites the corresponding local collection wholesale; the
// store contract guarantees per-collection delivery order.
func (s *Service) StartRealtime(ctx context.Context) error {
	_, err := s.Remote.Subscribe(ctx, store.ColCoupons, func(snap store.Snapshot) {
		s.State.SetCoupons(decodeSlice[domain.Coupon](snap, s.Logger))
	})
	if err != nil {
		return fmt.Errorf("subscribe coupons: %w", err)
	}

	_, err = s.Remote.Subscribe(ctx, store.ColPunchEvents, func(snap store.Snapshot) {
		events := decodeSlice[domain.PunchEvent](snap, s.Logger)
		sort.Slice(events, func(i, j int) bool {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		})
		if len(events) > punchHistoryLimit {
			events = events[:punchHistoryLimit]
		}
		s.State.SetPunchEvents(events)
	})
	if err != nil {
		return fmt.Errorf("subscribe punch events: %w", err)
	}
	return nil
}

// punchHistoryLimit caps the retained kiosk event history.
const punchHistoryLimit = 30

// SyncAll reconciles every owned collection. Punch events are excluded: the
// kiosk feed is read-only for this service.
func (s *Service) SyncAll(ctx context.Context) {
	s.syncEmployees(ctx)
	s.syncCoupons(ctx)
	s.syncContractors(ctx)
	s.syncNotifications(ctx)
	s.syncGuestRequests(ctx)
	s.syncMenus(ctx)
}

func (s *Service) syncEmployees(ctx context.Context) {
	syncCollection(ctx, s.Remote, s.Logger, store.ColEmployees, s.State.Employees(),
		func(e domain.Employee) string { return fmt.Sprint(e.ID) })
}

func (s *Service) syncCoupons(ctx context.Context) {
	syncCollection(ctx, s.Remote, s.Logger, store.ColCoupons, s.State.Coupons(),
		func(c domain.Coupon) string { return c.CouponID })
}

func (s *Service) syncContractors(ctx context.Context) {
	syncCollection(ctx, s.Remote, s.Logger, store.ColContractors, s.State.Contractors(),
		func(c domain.Contractor) string { return fmt.Sprint(c.ID) })
}

func (s *Service) syncNotifications(ctx context.Context) {
	syncCollection(ctx, s.Remote, s.Logger, store.ColNotifications, s.State.Notifications(),
		func(n domain.AppNotification) string { return n.ID })
}

func (s *Service) syncGuestRequests(ctx context.Context) {
	syncCollection(ctx, s.Remote, s.Logger, store.ColGuestRequests, s.State.GuestRequests(),
		func(r domain.GuestCouponRequest) string { return r.ID })
}

func (s *Service) syncMenus(ctx context.Context) {
	syncCollection(ctx, s.Remote, s.Logger, store.ColMenus, s.State.Menus(),
		func(m domain.DailyMenu) string { return m.ID })
}

// syncCollection is the full-collection diff/replace reconciliation: upsert
// everything present locally, then delete remote documents whose key is no
// longer present locally. Partial failure is reported and logged, never
// rolled back; a key that is present locally is never deleted, so a failed
// run cannot reintroduce or drop documents it did not touch.
func syncCollection[T any](ctx context.Context, remote store.Remote, logger *slog.Logger, collection string, items []T, key func(T) string) error {
	existing, err := remote.GetAll(ctx, collection)
	if err != nil {
		logger.Error("sync skipped, remote unavailable", "collection", collection, "err", err)
		return err
	}

	var failures []error
	for _, item := range items {
		k := key(item)
		delete(existing, k)
		doc, err := json.Marshal(item)
		if err != nil {
			failures = append(failures, fmt.Errorf("marshal %s/%s: %w", collection, k, err))
			continue
		}
		if err := remote.Upsert(ctx, collection, k, doc); err != nil {
			failures = append(failures, err)
		}
	}
	for k := range existing {
		if err := remote.Delete(ctx, collection, k); err != nil {
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		err := fmt.Errorf("sync %s: %d op(s) failed: %w", collection, len(failures), errors.Join(failures...))
		logger.Error("collection sync incomplete", "collection", collection, "failed", len(failures), "err", err)
		return err
	}
	return nil
}

// decodeSlice turns a snapshot into domain records, key-sorted for stable
// iteration. Undecodable documents are logged and skipped.
func decodeSlice[T any](snap store.Snapshot, logger *slog.Logger) []T {
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(snap))
	for _, k := range keys {
		var item T
		if err := json.Unmarshal(snap[k], &item); err != nil {
			logger.Warn("skipping undecodable document", "key", k, "err", err)
			continue
		}
		out = append(out, item)
	}
	return out
}
