// Package mail is the fire-and-forget email side channel. Delivery
// failures are logged, never propagated into business results.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
)

type Mailer interface {
	// NotifyCouponsIssued tells the employee a new coupon batch landed.
	NotifyCouponsIssued(employee domain.Employee, count int, couponType domain.CouponType)
	// SendTestMessage verifies the delivery configuration.
	SendTestMessage(recipient string) string
}

type Settings struct {
	Enabled        bool
	FromAddress    string
	ReplyToAddress string
	Host           string
	Port           int
	User           string
	Password       string
}

// SMTP delivers through a plain SMTP relay.
type SMTP struct {
	Settings Settings
	Logger   *slog.Logger
}

func NewSMTP(settings Settings, logger *slog.Logger) *SMTP {
	return &SMTP{Settings: settings, Logger: logger}
}

func (m *SMTP) NotifyCouponsIssued(employee domain.Employee, count int, couponType domain.CouponType) {
	if !m.Settings.Enabled || employee.Email == "" {
		return
	}
	subject := "New Canteen Coupons Issued"
	body := fmt.Sprintf(
		"Dear %s,\r\n\r\nThis is to inform you that %d new coupon(s) of type %q have been issued to your account.\r\n\r\nYou can view and redeem your coupons by logging into the canteen management portal.\r\n\r\nThank you,\r\nCanteen Administration\r\n",
		employee.Name, count, couponType)
	if err := m.send(employee.Email, subject, body); err != nil {
		m.Logger.Error("coupon email failed", "to", employee.Email, "err", err)
	}
}

func (m *SMTP) SendTestMessage(recipient string) string {
	if !m.Settings.Enabled {
		return "Email notifications are currently disabled."
	}
	body := fmt.Sprintf(
		"This is a test email to verify your SMTP settings.\r\n\r\nIf you have received this, your configuration is working correctly.\r\n\r\nCurrent settings:\r\n- Host: %s\r\n- Port: %d\r\n- User: %s\r\n\r\nThank you,\r\nCanteen Administration\r\n",
		m.Settings.Host, m.Settings.Port, m.Settings.User)
	if err := m.send(recipient, "Test Email from Canteen Management", body); err != nil {
		m.Logger.Error("test email failed", "to", recipient, "err", err)
		return fmt.Sprintf("Test email to %s failed: %v", recipient, err)
	}
	return fmt.Sprintf("Test email sent to %s.", recipient)
}

func (m *SMTP) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.Settings.Host, m.Settings.Port)
	var auth smtp.Auth
	if m.Settings.User != "" {
		auth = smtp.PlainAuth("", m.Settings.User, m.Settings.Password, m.Settings.Host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.Settings.FromAddress)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	if m.Settings.ReplyToAddress != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", m.Settings.ReplyToAddress)
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n\r\n%s", subject, body)

	return smtp.SendMail(addr, auth, m.Settings.FromAddress, []string{to}, []byte(msg.String()))
}

// Log is a Mailer that only logs, used in development and tests.
type Log struct {
	Logger *slog.Logger
}

func (m *Log) NotifyCouponsIssued(employee domain.Employee, count int, couponType domain.CouponType) {
	m.Logger.Info("email (simulated): coupons issued",
		"to", employee.Email, "employee", employee.Name, "count", count, "type", couponType)
}

func (m *Log) SendTestMessage(recipient string) string {
	m.Logger.Info("email (simulated): test message", "to", recipient)
	return fmt.Sprintf("Simulated test email sent to %s.", recipient)
}
