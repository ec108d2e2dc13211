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

// ProjectService handles business logic for projects
type ProjectService struct {
	projectRepo *repository.ProjectRepository
	clientRepo  *repository.ClientRepository
	userRepo    *repository.UserRepository
	notifier    notify.Notifier
	logger      *zap.Logger
}

func NewProjectService(
	projectRepo *repository.ProjectRepository,
	clientRepo *repository.ClientRepository,
	userRepo *repository.UserRepository,
	notifier notify.Notifier,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		clientRepo:  clientRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *ProjectService) Create(ctx context.Context, req *domain.CreateProjectRequest) (*domain.ProjectDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client not found", ErrNotFound)
		}
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.ProjectStatusPlanning
	}

	project := &domain.Project{
		ClientID: client.ID,
		Name:     req.Name,
		Status:   status,
		Deadline: req.Deadline,
		Notes:    req.Notes,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	project.Client = client

	s.logger.Info("project created",
		zap.String("projectID", project.ID.String()),
		zap.String("clientID", project.ClientID.String()),
	)
	s.notifyAsync("New project started",
		fmt.Sprintf("Project %q was created for client %q.", project.Name, client.Name))

	return s.toDTO(project), nil
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*domain.ProjectDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.toDTO(project), nil
}

func (s *ProjectService) List(ctx context.Context, page, pageSize int, status domain.ProjectStatus) ([]domain.ProjectDTO, int64, error) {
	projects, total, err := s.projectRepo.List(ctx, page, pageSize, status)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]domain.ProjectDTO, len(projects))
	for i := range projects {
		dtos[i] = *s.toDTO(&projects[i])
	}
	return dtos, total, nil
}

// Update applies partial changes. ProgressPercentage is derived from tasks
// and cannot be set here.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProjectRequest) (*domain.ProjectDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.Deadline != nil {
		project.Deadline = req.Deadline
	}
	if req.Notes != nil {
		project.Notes = *req.Notes
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return s.toDTO(project), nil
}

func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.projectRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	s.logger.Info("project deleted", zap.String("projectID", id.String()))
	return nil
}

func (s *ProjectService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.ProjectDTO, error) {
	projects, err := s.projectRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	dtos := make([]domain.ProjectDTO, len(projects))
	for i := range projects {
		dtos[i] = *s.toDTO(&projects[i])
	}
	return dtos, nil
}

func (s *ProjectService) notifyAsync(subject, body string) {
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

func (s *ProjectService) toDTO(project *domain.Project) *domain.ProjectDTO {
	dto := &domain.ProjectDTO{
		ID:                 project.ID,
		ClientID:           project.ClientID,
		Name:               project.Name,
		Status:             project.Status,
		ProgressPercentage: project.ProgressPercentage,
		Notes:              project.Notes,
		CreatedAt:          project.CreatedAt.UTC().Format(time.RFC3339),
	}
	if project.Client != nil {
		dto.ClientName = project.Client.Name
	}
	if project.Deadline != nil {
		d := project.Deadline.Format("2006-01-02")
		dto.Deadline = &d
	}
	return dto
}
