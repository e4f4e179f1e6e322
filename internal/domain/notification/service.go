package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/swasthya/setu/internal/platform/websocket"
)

const EventCreated = "notification.created"

type Service struct {
	repo      Repository
	templates *Templates
	events    websocket.EventPublisher
}

// NewService wires the feed. events may be nil when nothing listens live.
func NewService(repo Repository, events websocket.EventPublisher) *Service {
	return &Service{repo: repo, templates: NewTemplates(), events: events}
}

func (s *Service) Templates() *Templates { return s.templates }

func (s *Service) Notify(ctx context.Context, n *Notification) error {
	if n.UserID == uuid.Nil {
		return fmt.Errorf("userId is required")
	}
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(n.Message) == "" {
		return fmt.Errorf("message is required")
	}
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if !validTypes[n.Type] {
		return fmt.Errorf("invalid type: %s", n.Type)
	}
	n.Read = false
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.events != nil {
		topic := websocket.UserTopic(n.UserID.String())
		if err := s.events.Publish(ctx, websocket.NewEvent(topic, EventCreated, "notification", n.ID.String(), n)); err != nil {
			log.Warn().Err(err).Str("notification_id", n.ID.String()).Msg("failed to publish notification")
		}
	}
	return nil
}

// NotifyTemplate renders a template and delivers it to userID.
func (s *Service) NotifyTemplate(ctx context.Context, userID uuid.UUID, templateID string, data map[string]string) (*Notification, error) {
	title, message, typ, err := s.templates.Render(templateID, data)
	if err != nil {
		return nil, err
	}
	n := &Notification{UserID: userID, Title: title, Message: message, Type: typ}
	if err := s.Notify(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) (*Notification, error) {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
