package app

import (
	"context"
	"log"
	"strings"

	"github.com/ethantaylan/five-v2-sub000/internal/clock"
	"github.com/ethantaylan/five-v2-sub000/internal/domain"
	"github.com/ethantaylan/five-v2-sub000/internal/realtime"
)

type MessageRepository interface {
	CreateMessage(ctx context.Context, m domain.Message) error
	ListMessages(ctx context.Context, eventID string) ([]domain.MessageWithAuthor, error)
	GetMessageWithAuthor(ctx context.Context, messageID string) (domain.MessageWithAuthor, error)
	DeleteMessageByRequester(ctx context.Context, messageID, requesterID string) (*domain.Message, error)
}

// ChatService is the per-event message log. Authorship is not checked
// against the participation ledger; any authenticated user may post.
type ChatService struct {
	repo   MessageRepository
	feed   FeedPublisher
	clock  clock.Clock
	logger *log.Logger
}

func NewChatService(repo MessageRepository, feed FeedPublisher, clk clock.Clock, logger *log.Logger) *ChatService {
	if logger == nil {
		logger = log.Default()
	}
	return &ChatService{repo: repo, feed: feed, clock: clk, logger: logger}
}

func (s *ChatService) List(ctx context.Context, eventID string) ([]domain.MessageWithAuthor, error) {
	return s.repo.ListMessages(ctx, eventID)
}

// Send stores the trimmed body and returns the row with the author's
// display name attached.
func (s *ChatService) Send(ctx context.Context, eventID, userID, body string) (domain.MessageWithAuthor, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.MessageWithAuthor{}, domain.ErrEmptyMessage
	}

	now := s.clock.Now()
	message := domain.Message{
		ID:        newID(),
		EventID:   eventID,
		AuthorID:  userID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return domain.MessageWithAuthor{}, err
	}

	stored, err := s.repo.GetMessageWithAuthor(ctx, message.ID)
	if err != nil {
		return domain.MessageWithAuthor{}, err
	}

	s.publish(ctx, realtime.Delta{
		Stream:  realtime.StreamMessages,
		Kind:    realtime.KindInsert,
		EventID: eventID,
		RowID:   message.ID,
	})
	return stored, nil
}

// Delete removes the message when the requester is its author or the event
// organizer. The predicate is enforced in the store, so a forged request
// cannot delete someone else's message; an unmatched delete reports false
// rather than failing.
func (s *ChatService) Delete(ctx context.Context, messageID, requesterID string) (bool, error) {
	removed, err := s.repo.DeleteMessageByRequester(ctx, messageID, requesterID)
	if err != nil {
		return false, err
	}
	if removed == nil {
		return false, nil
	}

	s.publish(ctx, realtime.Delta{
		Stream:  realtime.StreamMessages,
		Kind:    realtime.KindDelete,
		EventID: removed.EventID,
		RowID:   removed.ID,
	})
	return true, nil
}

func (s *ChatService) publish(ctx context.Context, delta realtime.Delta) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, delta); err != nil {
		s.logger.Printf("chat: publish %s: %v", delta.Kind, err)
	}
}
