package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/unclebandit/outreach-backend/internal/cache"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// ConversationService manages chat session and turn records for the
// dashboard. Reply generation itself lives elsewhere.
type ConversationService struct {
	ConversationRepo repository.ConversationRepositoryInterface
	CustomerRepo     repository.CustomerRepositoryInterface
	HotCache         *cache.CustomerCache
	Log              zerolog.Logger
}

func (s *ConversationService) Create(visitorID string, metadata json.RawMessage) (*model.Conversation, error) {
	c := &model.Conversation{
		VisitorID: visitorID,
		Status:    "open",
		Metadata:  metadata,
	}
	if err := s.ConversationRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ConversationService) Get(id int) (*model.Conversation, error) {
	return s.ConversationRepo.GetByID(id)
}

func (s *ConversationService) List(page, pageSize int, status string) ([]*model.Conversation, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	conversations, total, err := s.ConversationRepo.List(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": (total + pageSize - 1) / pageSize,
	}
	return conversations, pagination, nil
}

func (s *ConversationService) Close(id int) error {
	if _, err := s.ConversationRepo.GetByID(id); err != nil {
		return err
	}
	return s.ConversationRepo.SetStatus(id, "closed")
}

func (s *ConversationService) AppendMessage(conversationID int, sender model.SenderType, content string, metadata json.RawMessage) (*model.Message, error) {
	if _, err := s.ConversationRepo.GetByID(conversationID); err != nil {
		return nil, err
	}
	m := &model.Message{
		ConversationID: conversationID,
		SenderType:     sender,
		Content:        content,
		Metadata:       metadata,
	}
	if err := s.ConversationRepo.AppendMessage(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *ConversationService) Messages(conversationID int) ([]*model.Message, error) {
	if _, err := s.ConversationRepo.GetByID(conversationID); err != nil {
		return nil, err
	}
	return s.ConversationRepo.ListMessages(conversationID)
}

// CustomerContext looks up the commerce profile for a visitor email, trying
// the Redis hot cache before postgres.
func (s *ConversationService) CustomerContext(ctx context.Context, email string) (*model.Customer, error) {
	if s.HotCache != nil {
		customer, err := s.HotCache.Get(ctx, email)
		if err != nil {
			s.Log.Warn().Err(err).Str("email", email).Msg("hot cache read failed")
		} else if customer != nil {
			return customer, nil
		}
	}

	customer, err := s.CustomerRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if customer != nil && s.HotCache != nil {
		// Read-through fill.
		if err := s.HotCache.Set(ctx, customer); err != nil {
			s.Log.Warn().Err(err).Str("email", email).Msg("hot cache fill failed")
		}
	}
	return customer, nil
}
