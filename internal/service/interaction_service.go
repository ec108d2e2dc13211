package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InteractionService records immutable touchpoint history against clients
// and leads. Interactions have no update or delete path.
type InteractionService struct {
	interactionRepo *repository.InteractionRepository
	clientRepo      *repository.ClientRepository
	leadRepo        *repository.LeadRepository
	logger          *zap.Logger
}

func NewInteractionService(
	interactionRepo *repository.InteractionRepository,
	clientRepo *repository.ClientRepository,
	leadRepo *repository.LeadRepository,
	logger *zap.Logger,
) *InteractionService {
	return &InteractionService{
		interactionRepo: interactionRepo,
		clientRepo:      clientRepo,
		leadRepo:        leadRepo,
		logger:          logger,
	}
}

// Create records an interaction against a client or a lead
func (s *InteractionService) Create(ctx context.Context, req *domain.CreateInteractionRequest) (*domain.InteractionDTO, error) {
	if req.ClientID == nil && req.LeadID == nil {
		return nil, fmt.Errorf("%w: interaction requires a client or lead", ErrMissingLinkage)
	}
	if req.ClientID != nil && req.LeadID != nil {
		return nil, fmt.Errorf("%w: interaction links to a client or a lead, not both", ErrInvalidInput)
	}

	if req.ClientID != nil {
		if _, err := s.clientRepo.GetByID(ctx, *req.ClientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: client not found", ErrNotFound)
			}
			return nil, err
		}
	}
	if req.LeadID != nil {
		if _, err := s.leadRepo.GetByID(ctx, *req.LeadID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: lead not found", ErrNotFound)
			}
			return nil, err
		}
	}

	interactionType := req.InteractionType
	if interactionType == "" {
		interactionType = domain.InteractionNote
	}

	interaction := &domain.Interaction{
		ClientID:        req.ClientID,
		LeadID:          req.LeadID,
		InteractionType: interactionType,
		Notes:           req.Notes,
	}
	if user, ok := auth.FromContext(ctx); ok {
		interaction.CreatedByID = &user.UserID
	}

	if err := s.interactionRepo.Create(ctx, interaction); err != nil {
		return nil, fmt.Errorf("failed to record interaction: %w", err)
	}

	s.logger.Info("interaction recorded",
		zap.String("interactionID", interaction.ID.String()),
		zap.String("type", string(interaction.InteractionType)),
	)
	return s.toDTO(interaction), nil
}

func (s *InteractionService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.InteractionDTO, error) {
	interactions, err := s.interactionRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(interactions), nil
}

func (s *InteractionService) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.InteractionDTO, error) {
	interactions, err := s.interactionRepo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(interactions), nil
}

// Recent returns the latest interactions visible to the caller
func (s *InteractionService) Recent(ctx context.Context, limit int) ([]domain.InteractionDTO, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	interactions, err := s.interactionRepo.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(interactions), nil
}

func (s *InteractionService) toDTOs(interactions []domain.Interaction) []domain.InteractionDTO {
	dtos := make([]domain.InteractionDTO, len(interactions))
	for i := range interactions {
		dtos[i] = *s.toDTO(&interactions[i])
	}
	return dtos
}

func (s *InteractionService) toDTO(interaction *domain.Interaction) *domain.InteractionDTO {
	return &domain.InteractionDTO{
		ID:              interaction.ID,
		ClientID:        interaction.ClientID,
		LeadID:          interaction.LeadID,
		CreatedByID:     interaction.CreatedByID,
		InteractionType: interaction.InteractionType,
		Notes:           interaction.Notes,
		CreatedAt:       interaction.CreatedAt.UTC().Format(time.RFC3339),
	}
}
