// Package push mirrors in-app notifications to registered devices through
// Firebase Cloud Messaging. Entirely best-effort: a nil Sender or a failed
// send never affects the operation that produced the notification.
package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"firebase.google.com/go/v4/messaging"
)

type Sender struct {
	Client *messaging.Client
	Logger *slog.Logger

	mu     sync.RWMutex
	tokens map[int64][]string
}

func NewSender(client *messaging.Client, logger *slog.Logger) *Sender {
	return &Sender{Client: client, Logger: logger, tokens: make(map[int64][]string)}
}

// RegisterToken associates a device token with an employee.
func (s *Sender) RegisterToken(employeeID int64, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens[employeeID] {
		if t == token {
			return
		}
	}
	s.tokens[employeeID] = append(s.tokens[employeeID], token)
}

// Send pushes the message to every device the employee registered.
func (s *Sender) Send(ctx context.Context, employeeID int64, message string) {
	if s == nil || s.Client == nil {
		return
	}
	s.mu.RLock()
	tokens := append([]string(nil), s.tokens[employeeID]...)
	s.mu.RUnlock()

	for _, token := range tokens {
		_, err := s.Client.Send(ctx, &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: "Canteen",
				Body:  message,
			},
			Data: map[string]string{"employeeId": fmt.Sprint(employeeID)},
		})
		if err != nil {
			s.Logger.Warn("push send failed", "employeeId", employeeID, "err", err)
		}
	}
}
