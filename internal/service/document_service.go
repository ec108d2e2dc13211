package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/repository"
	"github.com/techvilo/crm-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentService stores uploaded files and their metadata rows
type DocumentService struct {
	docRepo *repository.DocumentRepository
	store   storage.Storage
	logger  *zap.Logger
}

func NewDocumentService(docRepo *repository.DocumentRepository, store storage.Storage, logger *zap.Logger) *DocumentService {
	return &DocumentService{docRepo: docRepo, store: store, logger: logger}
}

// Upload stores the file and records its linkage. At least one of project,
// client or lead must be linked.
func (s *DocumentService) Upload(ctx context.Context, title, filename string, r io.Reader, projectID, clientID, leadID *uuid.UUID) (*domain.DocumentDTO, error) {
	if projectID == nil && clientID == nil && leadID == nil {
		return nil, fmt.Errorf("%w: document requires a project, client or lead", ErrMissingLinkage)
	}
	if title == "" {
		title = filename
	}

	path, err := s.store.Save(ctx, filename, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &domain.Document{
		ProjectID:   projectID,
		ClientID:    clientID,
		LeadID:      leadID,
		Title:       title,
		StoragePath: path,
	}
	if user, ok := auth.FromContext(ctx); ok {
		doc.UploadedByID = &user.UserID
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		// Roll the blob back so the store does not accumulate orphans
		if delErr := s.store.Delete(ctx, path); delErr != nil {
			s.logger.Warn("failed to remove orphaned file", zap.String("path", path), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	s.logger.Info("document uploaded",
		zap.String("documentID", doc.ID.String()),
		zap.String("title", doc.Title),
	)
	return s.toDTO(doc), nil
}

// Download opens the stored blob for a document
func (s *DocumentService) Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, *domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return rc, doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.docRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		s.logger.Warn("failed to remove stored file", zap.String("path", doc.StoragePath), zap.Error(err))
	}
	return nil
}

func (s *DocumentService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.DocumentDTO, error) {
	docs, err := s.docRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(docs), nil
}

func (s *DocumentService) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.DocumentDTO, error) {
	docs, err := s.docRepo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(docs), nil
}

func (s *DocumentService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.DocumentDTO, error) {
	docs, err := s.docRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(docs), nil
}

func (s *DocumentService) toDTOs(docs []domain.Document) []domain.DocumentDTO {
	dtos := make([]domain.DocumentDTO, len(docs))
	for i := range docs {
		dtos[i] = *s.toDTO(&docs[i])
	}
	return dtos
}

func (s *DocumentService) toDTO(doc *domain.Document) *domain.DocumentDTO {
	return &domain.DocumentDTO{
		ID:        doc.ID,
		ProjectID: doc.ProjectID,
		ClientID:  doc.ClientID,
		LeadID:    doc.LeadID,
		Title:     doc.Title,
		CreatedAt: doc.CreatedAt.UTC().Format(time.RFC3339),
	}
}
