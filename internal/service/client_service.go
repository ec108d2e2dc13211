package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/cache"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/notify"
	"github.com/techvilo/crm-api/internal/pdf"
	"github.com/techvilo/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClientService handles business logic for clients
type ClientService struct {
	clientRepo  *repository.ClientRepository
	projectRepo *repository.ProjectRepository
	userRepo    *repository.UserRepository
	txRepo      *repository.TransactionRepository
	cache       *cache.Cache
	notifier    notify.Notifier
	logger      *zap.Logger
}

func NewClientService(
	clientRepo *repository.ClientRepository,
	projectRepo *repository.ProjectRepository,
	userRepo *repository.UserRepository,
	txRepo *repository.TransactionRepository,
	metricsCache *cache.Cache,
	notifier notify.Notifier,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		clientRepo:  clientRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		txRepo:      txRepo,
		cache:       metricsCache,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *ClientService) Create(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error) {
	services := req.Services
	if services == "" {
		services = domain.ServiceConsulting
	}

	client := &domain.Client{
		Name:         req.Name,
		CompanyName:  req.CompanyName,
		Services:     services,
		TotalPayable: req.TotalPayable,
	}

	if len(req.AssignedTo) > 0 {
		users, err := s.userRepo.GetByIDs(ctx, req.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assignees: %w", err)
		}
		if len(users) != len(req.AssignedTo) {
			return nil, fmt.Errorf("%w: unknown assignee", ErrInvalidInput)
		}
		client.AssignedTo = users
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("client created",
		zap.String("clientID", client.ID.String()),
		zap.String("name", client.Name),
	)
	s.notifyAsync("New client onboarded",
		fmt.Sprintf("Client %q was added with service %s.", client.Name, client.Services))

	return s.toDTO(client), nil
}

func (s *ClientService) Get(ctx context.Context, id uuid.UUID) (*domain.ClientDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.toDTO(client), nil
}

func (s *ClientService) List(ctx context.Context, page, pageSize int, search string) ([]domain.ClientDTO, int64, error) {
	clients, total, err := s.clientRepo.List(ctx, page, pageSize, search)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]domain.ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = *s.toDTO(&clients[i])
	}
	return dtos, total, nil
}

// Update applies partial changes. PaidAmount is derived and cannot be set here.
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateClientRequest) (*domain.ClientDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.CompanyName != nil {
		client.CompanyName = *req.CompanyName
	}
	if req.Services != nil {
		client.Services = *req.Services
	}
	if req.TotalPayable != nil {
		client.TotalPayable = *req.TotalPayable
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	if req.AssignedTo != nil {
		users, err := s.userRepo.GetByIDs(ctx, req.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assignees: %w", err)
		}
		if err := s.clientRepo.ReplaceAssignments(ctx, client, users); err != nil {
			return nil, fmt.Errorf("failed to update assignments: %w", err)
		}
		client.AssignedTo = users
	}

	s.cache.Invalidate(cache.ClientMetricsKey(client.ID))
	return s.toDTO(client), nil
}

func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.clientRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	s.cache.Invalidate(cache.ClientMetricsKey(id))
	s.logger.Info("client deleted", zap.String("clientID", id.String()))
	return nil
}

// Metrics returns the per-client financial widget, cached per client
func (s *ClientService) Metrics(ctx context.Context, id uuid.UUID) (*domain.ClientMetrics, error) {
	key := cache.ClientMetricsKey(id)
	if cached, ok := s.cache.Get(key); ok {
		if metrics, ok := cached.(*domain.ClientMetrics); ok {
			return metrics, nil
		}
	}

	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	projectCount, err := s.clientRepo.ProjectCount(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics := &domain.ClientMetrics{
		ClientID:     client.ID,
		TotalPayable: client.TotalPayable,
		PaidAmount:   client.PaidAmount,
		DueAmount:    client.DueAmount(),
		ProjectCount: projectCount,
	}
	s.cache.Set(key, metrics)
	return metrics, nil
}

// Invoice renders the client's invoice PDF from its stored financials,
// projects and the most recent payments.
func (s *ClientService) Invoice(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	projects, err := s.projectRepo.ListByClient(ctx, id)
	if err != nil {
		return nil, "", err
	}
	payments, err := s.txRepo.RecentPayments(ctx, id, 10)
	if err != nil {
		return nil, "", err
	}

	issuedAt := time.Now().UTC()
	bytes, err := pdf.RenderInvoice(&pdf.InvoiceData{
		Client:   client,
		Projects: projects,
		Payments: payments,
		IssuedAt: issuedAt,
	})
	if err != nil {
		return nil, "", err
	}
	return bytes, pdf.InvoiceNumber(client.ID, issuedAt), nil
}

func (s *ClientService) notifyAsync(subject, body string) {
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

func (s *ClientService) toDTO(client *domain.Client) *domain.ClientDTO {
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
	return dto
}
