package canteen

import (
	"context"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
)

// notify records an in-app notification and mirrors it to the push side
// channel.
func (s *Service) notify(ctx context.Context, n domain.AppNotification) {
	n.ID = s.newNotificationID()
	n.IsRead = false
	n.CreatedAt = s.Now()
	s.State.PrependNotifications(n)
	s.syncNotifications(ctx)

	if s.Push != nil {
		s.Push.Send(ctx, n.EmployeeID, n.Message)
	}
}

// NotificationsFor returns the receiver's notifications, newest first.
func (s *Service) NotificationsFor(employeeID int64) []domain.AppNotification {
	var out []domain.AppNotification
	for _, n := range s.State.Notifications() {
		if n.EmployeeID == employeeID {
			out = append(out, n)
		}
	}
	return out
}

func (s *Service) MarkNotificationRead(ctx context.Context, notificationID string) {
	s.State.UpdateNotifications(func(n *domain.AppNotification) {
		if n.ID == notificationID {
			n.IsRead = true
		}
	})
	s.syncNotifications(ctx)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, employeeID int64) {
	s.State.UpdateNotifications(func(n *domain.AppNotification) {
		if n.EmployeeID == employeeID {
			n.IsRead = true
		}
	})
	s.syncNotifications(ctx)
}
