package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/repository"
	"go.uber.org/zap"
)

// DashboardService assembles the role-scoped dashboard. All numbers flow
// through the scoped repositories, so an agent sees only figures derived
// from their assigned clients.
type DashboardService struct {
	clientRepo  *repository.ClientRepository
	leadRepo    *repository.LeadRepository
	projectRepo *repository.ProjectRepository
	taskRepo    *repository.TaskRepository
	txRepo      *repository.TransactionRepository
	kpiService  *KPIService
	logger      *zap.Logger
}

func NewDashboardService(
	clientRepo *repository.ClientRepository,
	leadRepo *repository.LeadRepository,
	projectRepo *repository.ProjectRepository,
	taskRepo *repository.TaskRepository,
	txRepo *repository.TransactionRepository,
	kpiService *KPIService,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		clientRepo:  clientRepo,
		leadRepo:    leadRepo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		txRepo:      txRepo,
		kpiService:  kpiService,
		logger:      logger,
	}
}

// Metrics builds the dashboard for the calling user. Managers additionally
// get the current month's staff scorecards.
func (s *DashboardService) Metrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	now := time.Now().UTC()
	metrics := &domain.DashboardMetrics{}

	totalClients, err := s.clientRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	metrics.TotalClients = totalClients

	totalLeads, err := s.leadRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	metrics.TotalLeads = totalLeads

	leadsByStatus, err := s.leadRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	metrics.LeadsByStatus = leadsByStatus

	activeProjects, err := s.projectRepo.CountByStatus(ctx, domain.ProjectStatusInProgress)
	if err != nil {
		return nil, err
	}
	metrics.ActiveProjects = activeProjects

	income, err := s.txRepo.SumByType(ctx, domain.TransactionIncome)
	if err != nil {
		return nil, err
	}
	expense, err := s.txRepo.SumByType(ctx, domain.TransactionExpense)
	if err != nil {
		return nil, err
	}
	metrics.TotalIncome = income
	metrics.TotalExpense = expense
	metrics.NetProfit = income - expense

	monthStart, monthEnd := MonthWindow(now)
	monthIncome, err := s.txRepo.SumByTypeInWindow(ctx, domain.TransactionIncome, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	monthExpense, err := s.txRepo.SumByTypeInWindow(ctx, domain.TransactionExpense, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	metrics.MonthIncome = monthIncome
	metrics.MonthExpense = monthExpense

	user, _ := auth.FromContext(ctx)
	var assignee *uuid.UUID
	if user != nil && !user.IsPrivileged() {
		assignee = &user.UserID
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	overdue, err := s.taskRepo.CountOverdue(ctx, today, assignee)
	if err != nil {
		return nil, err
	}
	metrics.OverdueTasks = overdue

	upcoming, err := s.taskRepo.Due(ctx, today, today.AddDate(0, 0, 7), assignee)
	if err != nil {
		return nil, err
	}
	for i := range upcoming {
		task := &upcoming[i]
		dto := domain.TaskDTO{
			ID:           task.ID,
			ProjectID:    task.ProjectID,
			Name:         task.Name,
			AssignedToID: task.AssignedToID,
			Status:       task.Status,
			Priority:     task.Priority,
			IsCompleted:  task.IsCompleted,
		}
		if task.Project != nil {
			dto.ProjectName = task.Project.Name
		}
		if task.DueDate != nil {
			d := task.DueDate.Format("2006-01-02")
			dto.DueDate = &d
		}
		metrics.UpcomingTasks = append(metrics.UpcomingTasks, dto)
	}

	deadlines, err := s.projectRepo.UpcomingDeadlines(ctx, today, today.AddDate(0, 0, 14))
	if err != nil {
		return nil, err
	}
	for i := range deadlines {
		p := &deadlines[i]
		dto := domain.ProjectDTO{
			ID:                 p.ID,
			ClientID:           p.ClientID,
			Name:               p.Name,
			Status:             p.Status,
			ProgressPercentage: p.ProgressPercentage,
			CreatedAt:          p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if p.Client != nil {
			dto.ClientName = p.Client.Name
		}
		if p.Deadline != nil {
			d := p.Deadline.Format("2006-01-02")
			dto.Deadline = &d
		}
		metrics.UpcomingDeadlines = append(metrics.UpcomingDeadlines, dto)
	}

	if user != nil && user.IsPrivileged() {
		cards, err := s.kpiService.ScorecardsForMonth(ctx, now)
		if err != nil {
			return nil, err
		}
		metrics.Scorecards = cards
	}

	return metrics, nil
}

// ProjectBoard groups the caller's visible projects into status columns
func (s *DashboardService) ProjectBoard(ctx context.Context) (*domain.KanbanBoard, error) {
	projects, err := s.projectRepo.ListScoped(ctx)
	if err != nil {
		return nil, err
	}

	board := &domain.KanbanBoard{
		BoardType: "projects",
		Columns:   emptyColumns(string(domain.ProjectStatusPlanning), string(domain.ProjectStatusInProgress), string(domain.ProjectStatusReview), string(domain.ProjectStatusCompleted)),
	}
	for i := range projects {
		p := &projects[i]
		card := domain.KanbanCard{
			ID:       p.ID,
			Title:    p.Name,
			Progress: p.ProgressPercentage,
		}
		if p.Client != nil {
			card.Subtitle = p.Client.Name
		}
		if p.Deadline != nil {
			d := p.Deadline.Format("2006-01-02")
			card.DueDate = &d
		}
		col := string(p.Status)
		board.Columns[col] = append(board.Columns[col], card)
	}
	return board, nil
}

// TaskBoard groups the caller's visible tasks into status columns
func (s *DashboardService) TaskBoard(ctx context.Context) (*domain.KanbanBoard, error) {
	tasks, err := s.taskRepo.ListScoped(ctx)
	if err != nil {
		return nil, err
	}

	board := &domain.KanbanBoard{
		BoardType: "tasks",
		Columns:   emptyColumns(string(domain.TaskStatusTodo), string(domain.TaskStatusInProgress), string(domain.TaskStatusReview), string(domain.TaskStatusDone)),
	}
	for i := range tasks {
		t := &tasks[i]
		card := domain.KanbanCard{
			ID:    t.ID,
			Title: t.Name,
		}
		if t.Project != nil {
			card.Subtitle = t.Project.Name
		}
		if t.DueDate != nil {
			d := t.DueDate.Format("2006-01-02")
			card.DueDate = &d
		}
		col := string(t.Status)
		board.Columns[col] = append(board.Columns[col], card)
	}
	return board, nil
}

func emptyColumns(names ...string) map[string][]domain.KanbanCard {
	cols := make(map[string][]domain.KanbanCard, len(names))
	for _, n := range names {
		cols[n] = []domain.KanbanCard{}
	}
	return cols
}
