// Package canteen implements the coupon lifecycle core: issuance quotas,
// contractor pool allocation, idempotent redemption against the replicated
// store, and the guest pass workflow.
package canteen

import (
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/mail"
	"github.com/avbottsubscription-dev/canteencouponang/internal/push"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/avbottsubscription-dev/canteencouponang/internal/store"
	"github.com/google/uuid"
)

// Result is the outcome of every business operation. Expected failures are
// values with a human-readable reason, never errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func failure(message string) Result { return Result{Success: false, Message: message} }
func success(message string) Result { return Result{Success: true, Message: message} }

// Redemption outcomes.
const (
	Redeemed         RedeemStatus = "redeemed"
	AlreadyRedeemed  RedeemStatus = "already_redeemed"
	CodeNotFound     RedeemStatus = "not_found"
	NotAssigned      RedeemStatus = "not_assigned"
	OwnerDeactivated RedeemStatus = "owner_deactivated"
)

type RedeemStatus string

// RedeemResult carries the redemption outcome. RedeemedAt is set when the
// coupon was already redeemed and the authoritative timestamp is known.
type RedeemResult struct {
	Status     RedeemStatus `json:"status"`
	Message    string       `json:"message"`
	RedeemedAt *time.Time   `json:"redeemedAt,omitempty"`
}

func (r RedeemResult) Result() Result {
	return Result{Success: r.Status == Redeemed, Message: r.Message}
}

// Service is the coupon core. All mutation flows through it; the local
// state is advisory and the remote store is reconciled on every write.
type Service struct {
	State  *state.State
	Remote store.Remote
	Mailer mail.Mailer
	Push   *push.Sender
	Logger *slog.Logger

	// Now and RandInt are injection points for tests.
	Now     func() time.Time
	RandInt func(n int) int
}

func NewService(st *state.State, remote store.Remote, mailer mail.Mailer, sender *push.Sender, logger *slog.Logger) *Service {
	return &Service{
		State:   st,
		Remote:  remote,
		Mailer:  mailer,
		Push:    sender,
		Logger:  logger,
		Now:     time.Now,
		RandInt: rand.Intn,
	}
}

const tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func (s *Service) randToken(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(tokenAlphabet[s.RandInt(len(tokenAlphabet))])
	}
	return b.String()
}

func (s *Service) newCouponID() string { return "CPN-" + s.randToken(8) }

func (s *Service) newGuestRequestID() string { return "GREQ-" + s.randToken(8) }

func (s *Service) newNotificationID() string { return "NTF-" + uuid.NewString() }

// newRedemptionCode returns a 4-digit numeric code.
func (s *Service) newRedemptionCode() string {
	return strconv.Itoa(1000 + s.RandInt(9000))
}

// issuedCodes is the set of codes held by currently-issued coupons. Codes
// are reusable after redemption, so uniqueness is only required within this
// set.
func (s *Service) issuedCodes() map[string]struct{} {
	codes := map[string]struct{}{}
	for _, c := range s.State.Coupons() {
		if c.Status == domain.CouponIssued {
			codes[c.RedemptionCode] = struct{}{}
		}
	}
	return codes
}

// uniqueCode draws codes until one misses the taken set, then reserves it.
func (s *Service) uniqueCode(taken map[string]struct{}) string {
	for {
		code := s.newRedemptionCode()
		if _, exists := taken[code]; !exists {
			taken[code] = struct{}{}
			return code
		}
	}
}
