package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/notify"
	"github.com/techvilo/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeadService handles business logic for leads, including conversion of a
// lead into a client.
type LeadService struct {
	leadRepo *repository.LeadRepository
	userRepo *repository.UserRepository
	notifier notify.Notifier
	logger   *zap.Logger
	db       *gorm.DB
}

func NewLeadService(
	leadRepo *repository.LeadRepository,
	userRepo *repository.UserRepository,
	notifier notify.Notifier,
	logger *zap.Logger,
	db *gorm.DB,
) *LeadService {
	return &LeadService{
		leadRepo: leadRepo,
		userRepo: userRepo,
		notifier: notifier,
		logger:   logger,
		db:       db,
	}
}

func (s *LeadService) Create(ctx context.Context, req *domain.CreateLeadRequest) (*domain.LeadDTO, error) {
	status := req.Status
	if status == "" {
		status = domain.LeadStatusCold
	}

	lead := &domain.Lead{
		Name:          req.Name,
		CompanyName:   req.CompanyName,
		Source:        req.Source,
		ContactInfo:   req.ContactInfo,
		Status:        status,
		NextFollowUp:  req.NextFollowUp,
		FeedbackNotes: req.FeedbackNotes,
		AssignedToID:  req.AssignedToID,
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.logger.Info("lead created",
		zap.String("leadID", lead.ID.String()),
		zap.String("source", lead.Source),
	)
	return s.toDTO(lead), nil
}

func (s *LeadService) Get(ctx context.Context, id uuid.UUID) (*domain.LeadDTO, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.toDTO(lead), nil
}

func (s *LeadService) List(ctx context.Context, page, pageSize int, status domain.LeadStatus) ([]domain.LeadDTO, int64, error) {
	leads, total, err := s.leadRepo.List(ctx, page, pageSize, status)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]domain.LeadDTO, len(leads))
	for i := range leads {
		dtos[i] = *s.toDTO(&leads[i])
	}
	return dtos, total, nil
}

// Update applies partial changes to a lead. A converted lead is frozen.
func (s *LeadService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateLeadRequest) (*domain.LeadDTO, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lead.Status == domain.LeadStatusConverted {
		return nil, ErrLeadAlreadyConverted
	}

	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.CompanyName != nil {
		lead.CompanyName = *req.CompanyName
	}
	if req.ContactInfo != nil {
		lead.ContactInfo = *req.ContactInfo
	}
	if req.Status != nil {
		if !req.Status.IsValid() || *req.Status == domain.LeadStatusConverted {
			// CONVERTED is only reachable through Convert
			return nil, fmt.Errorf("%w: invalid lead status %q", ErrInvalidInput, *req.Status)
		}
		lead.Status = *req.Status
	}
	if req.NextFollowUp != nil {
		lead.NextFollowUp = req.NextFollowUp
	}
	if req.FeedbackNotes != nil {
		lead.FeedbackNotes = *req.FeedbackNotes
	}
	if req.AssignedToID != nil {
		lead.AssignedToID = req.AssignedToID
	}

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return s.toDTO(lead), nil
}

func (s *LeadService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.leadRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.leadRepo.Delete(ctx, id)
}

// Convert turns a lead into a client atomically. The new client inherits the
// lead's name and assignee, interactions are relinked from the lead to the
// client, documents gain the client link and lose the lead one, and the lead
// itself is frozen as CONVERTED with a conversion timestamp. A second
// conversion attempt is rejected.
func (s *LeadService) Convert(ctx context.Context, id uuid.UUID) (*domain.ClientDTO, error) {
	var client *domain.Client

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lead domain.Lead
		query := lockForUpdate(tx.WithContext(ctx)).Where("leads.id = ?", id)
		query = repository.ApplyScope(ctx, query, domain.KindLead)
		if err := query.First(&lead).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if lead.Status == domain.LeadStatusConverted {
			return ErrLeadAlreadyConverted
		}

		companyName := lead.CompanyName
		if companyName == "" {
			companyName = lead.DisplayName()
		}
		client = &domain.Client{
			Name:        lead.DisplayName(),
			CompanyName: companyName,
			Services:    domain.ServiceConsulting,
		}
		if lead.AssignedToID != nil {
			var assignee domain.User
			if err := tx.First(&assignee, "id = ?", *lead.AssignedToID).Error; err == nil {
				client.AssignedTo = []domain.User{assignee}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if err := tx.Create(client).Error; err != nil {
			return fmt.Errorf("failed to create client from lead: %w", err)
		}

		// Interaction history moves to the client wholesale
		err := tx.Model(&domain.Interaction{}).
			Where("lead_id = ?", lead.ID).
			Updates(map[string]any{"client_id": client.ID, "lead_id": nil}).Error
		if err != nil {
			return fmt.Errorf("failed to relink interactions: %w", err)
		}

		err = tx.Model(&domain.Document{}).
			Where("lead_id = ?", lead.ID).
			Updates(map[string]any{"client_id": client.ID, "lead_id": nil}).Error
		if err != nil {
			return fmt.Errorf("failed to relink documents: %w", err)
		}

		now := time.Now().UTC()
		return tx.Model(&domain.Lead{}).
			Where("id = ?", lead.ID).
			Updates(map[string]any{
				"status":       domain.LeadStatusConverted,
				"converted_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("lead converted",
		zap.String("leadID", id.String()),
		zap.String("clientID", client.ID.String()),
	)
	s.notifyAsync("Lead converted",
		fmt.Sprintf("Lead was converted into client %q.", client.Name))

	dto := &domain.ClientDTO{
		ID:           client.ID,
		Name:         client.Name,
		CompanyName:  client.CompanyName,
		Services:     client.Services,
		TotalPayable: client.TotalPayable,
		PaidAmount:   client.PaidAmount,
		DueAmount:    client.DueAmount(),
		CreatedAt:    client.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    client.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, u := range client.AssignedTo {
		dto.AssignedTo = append(dto.AssignedTo, domain.UserDTO{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Role:        u.Role,
		})
	}
	return dto, nil
}

// DueFollowUps returns leads whose next follow-up falls on the given day
func (s *LeadService) DueFollowUps(ctx context.Context, day time.Time) ([]domain.Lead, error) {
	return s.leadRepo.DueFollowUps(ctx, day)
}

func (s *LeadService) notifyAsync(subject, body string) {
	if s.notifier == nil {
		return
	}
	go func() {
		emails, err := s.userRepo.ActiveStaffEmails(context.Background())
		if err != nil {
			s.logger.Warn("failed to load notification recipients", zap.Error(err))
			return
		}
		if err := s.notifier.Send(emails, subject, body); err != nil {
			s.logger.Warn("notification delivery failed", zap.Error(err))
		}
	}()
}

func (s *LeadService) toDTO(lead *domain.Lead) *domain.LeadDTO {
	dto := &domain.LeadDTO{
		ID:            lead.ID,
		Name:          lead.Name,
		CompanyName:   lead.CompanyName,
		Source:        lead.Source,
		ContactInfo:   lead.ContactInfo,
		Status:        lead.Status,
		FeedbackNotes: lead.FeedbackNotes,
		AssignedToID:  lead.AssignedToID,
		CreatedAt:     lead.CreatedAt.UTC().Format(time.RFC3339),
	}
	if lead.NextFollowUp != nil {
		d := lead.NextFollowUp.Format("2006-01-02")
		dto.NextFollowUp = &d
	}
	if lead.ConvertedAt != nil {
		t := lead.ConvertedAt.UTC().Format(time.RFC3339)
		dto.ConvertedAt = &t
	}
	return dto
}
