package service

import (
	"context"
	"fmt"
	"html"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ecommerce/pkg/domain/model"
)

// NotificationService turns domain events into customer mails. Delivery is
// fire-and-forget: failures are logged, never returned to the caller that
// raised the event.
type NotificationService interface {
	Handle(event Event)
}

func NewNotificationService(users model.UserRepository, sender model.MailSender) NotificationService {
	return &notificationService{users: users, sender: sender}
}

type notificationService struct {
	users  model.UserRepository
	sender model.MailSender
}

func (s *notificationService) Handle(event Event) {
	switch e := event.(type) {
	case model.UserRegistered:
		s.send(e.Email, "Welcome to our store!",
			fmt.Sprintf("<p>Hi %s, thanks for joining us!</p>", html.EscapeString(e.Name)))
	case model.OrderPlaced:
		s.sendToUser(e.UserID,
			fmt.Sprintf("Your order %s has been placed", e.OrderID),
			fmt.Sprintf("<p>We have received your order. Total: %s.</p>", e.TotalAmount.StringFixed(2)))
	case model.OrderStatusChanged:
		s.sendToUser(e.UserID,
			fmt.Sprintf("Your order %s is now %s", e.OrderID, e.NewStatus),
			fmt.Sprintf("<p>Your order status changed from %s to %s.</p>", e.OldStatus, e.NewStatus))
	case model.OrderCancelled:
		s.sendToUser(e.UserID,
			fmt.Sprintf("Your order %s has been cancelled", e.OrderID),
			"<p>Your order was cancelled and reserved items were returned to stock.</p>")
	}
}

func (s *notificationService) sendToUser(userID uuid.UUID, subject, body string) {
	user, err := s.users.Find(context.Background(), userID)
	if err != nil {
		log.WithError(err).WithField("userID", userID).Warn("cannot notify user")
		return
	}
	s.send(user.Email, subject, body)
}

func (s *notificationService) send(to, subject, body string) {
	if err := s.sender.Send(context.Background(), to, subject, body); err != nil {
		log.WithError(err).WithFields(log.Fields{"to": to, "subject": subject}).Warn("failed to send mail")
	}
}
