package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses

type ClientDTO struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	CompanyName  string      `json:"companyName,omitempty"`
	Services     ServiceTier `json:"services"`
	TotalPayable float64     `json:"totalPayable"`
	PaidAmount   float64     `json:"paidAmount"`
	DueAmount    float64     `json:"dueAmount"`
	AssignedTo   []UserDTO   `json:"assignedTo,omitempty"`
	CreatedAt    string      `json:"createdAt"` // ISO 8601
	UpdatedAt    string      `json:"updatedAt"` // ISO 8601
}

type LeadDTO struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name,omitempty"`
	CompanyName   string     `json:"companyName,omitempty"`
	Source        string     `json:"source"`
	ContactInfo   string     `json:"contactInfo,omitempty"`
	Status        LeadStatus `json:"status"`
	NextFollowUp  *string    `json:"nextFollowUp,omitempty"`
	FeedbackNotes string     `json:"feedbackNotes,omitempty"`
	AssignedToID  *uuid.UUID `json:"assignedToId,omitempty"`
	ConvertedAt   *string    `json:"convertedAt,omitempty"`
	CreatedAt     string     `json:"createdAt"`
}

type ProjectDTO struct {
	ID                 uuid.UUID     `json:"id"`
	ClientID           uuid.UUID     `json:"clientId"`
	ClientName         string        `json:"clientName,omitempty"`
	Name               string        `json:"name"`
	Status             ProjectStatus `json:"status"`
	Deadline           *string       `json:"deadline,omitempty"`
	ProgressPercentage int           `json:"progressPercentage"`
	Notes              string        `json:"notes,omitempty"`
	CreatedAt          string        `json:"createdAt"`
}

type TaskDTO struct {
	ID           uuid.UUID    `json:"id"`
	ProjectID    uuid.UUID    `json:"projectId"`
	ProjectName  string       `json:"projectName,omitempty"`
	Name         string       `json:"name"`
	AssignedToID *uuid.UUID   `json:"assignedToId,omitempty"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	IsCompleted  bool         `json:"isCompleted"`
	DueDate      *string      `json:"dueDate,omitempty"`
}

type TaskChecklistDTO struct {
	ID       uuid.UUID `json:"id"`
	TaskID   uuid.UUID `json:"taskId"`
	ItemName string    `json:"itemName"`
	IsDone   bool      `json:"isDone"`
}

type InteractionDTO struct {
	ID              uuid.UUID       `json:"id"`
	ClientID        *uuid.UUID      `json:"clientId,omitempty"`
	LeadID          *uuid.UUID      `json:"leadId,omitempty"`
	CreatedByID     *uuid.UUID      `json:"createdById,omitempty"`
	InteractionType InteractionType `json:"interactionType"`
	Notes           string          `json:"notes"`
	CreatedAt       string          `json:"createdAt"`
}

type TransactionDTO struct {
	ID              uuid.UUID       `json:"id"`
	ProjectID       *uuid.UUID      `json:"projectId,omitempty"`
	ClientID        *uuid.UUID      `json:"clientId,omitempty"`
	TransactionType TransactionType `json:"transactionType"`
	Amount          float64         `json:"amount"`
	Date            string          `json:"date"`
	Description     string          `json:"description,omitempty"`
	CreatedByID     *uuid.UUID      `json:"createdById,omitempty"`
}

type DocumentDTO struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID *uuid.UUID `json:"projectId,omitempty"`
	ClientID  *uuid.UUID `json:"clientId,omitempty"`
	LeadID    *uuid.UUID `json:"leadId,omitempty"`
	Title     string     `json:"title"`
	CreatedAt string     `json:"createdAt"`
}

type UserDTO struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        UserRole  `json:"role"`
}

// KPIActuals holds the computed actual figures for one (staff, month) pair
type KPIActuals struct {
	Leads        int     `json:"leads"`
	Tasks        int     `json:"tasks"`
	Interactions int     `json:"interactions"`
	Revenue      float64 `json:"revenue"`
}

// KPIMetric pairs one actual with its target and achieved percentage
type KPIMetric struct {
	Label  string  `json:"label"`
	Actual float64 `json:"actual"`
	Target float64 `json:"target"`
	Pct    int     `json:"pct"`
}

// KPIScorecard is the full monthly scorecard for one staff member
type KPIScorecard struct {
	StaffID    uuid.UUID   `json:"staffId"`
	StaffName  string      `json:"staffName"`
	Month      string      `json:"month"` // YYYY-MM
	Metrics    []KPIMetric `json:"metrics"`
	OverallPct int         `json:"overallPct"`
}

// DashboardMetrics aggregates the role-scoped dashboard numbers
type DashboardMetrics struct {
	TotalLeads        int                `json:"totalLeads"`
	TotalClients      int                `json:"totalClients"`
	ActiveProjects    int                `json:"activeProjects"`
	TotalIncome       float64            `json:"totalIncome"`
	TotalExpense      float64            `json:"totalExpense"`
	NetProfit         float64            `json:"netProfit"`
	MonthIncome       float64            `json:"monthIncome"`
	MonthExpense      float64            `json:"monthExpense"`
	LeadsByStatus     map[LeadStatus]int `json:"leadsByStatus"`
	OverdueTasks      int                `json:"overdueTasks"`
	UpcomingTasks     []TaskDTO          `json:"upcomingTasks"`
	UpcomingDeadlines []ProjectDTO       `json:"upcomingDeadlines"`
	Scorecards        []KPIScorecard     `json:"scorecards,omitempty"`
}

// ClientMetrics holds per-client financial figures for the cached dashboard widget
type ClientMetrics struct {
	ClientID     uuid.UUID `json:"clientId"`
	TotalPayable float64   `json:"totalPayable"`
	PaidAmount   float64   `json:"paidAmount"`
	DueAmount    float64   `json:"dueAmount"`
	ProjectCount int       `json:"projectCount"`
}

// KanbanBoard groups scoped items into status columns
type KanbanBoard struct {
	BoardType string                  `json:"boardType"` // "projects" or "tasks"
	Columns   map[string][]KanbanCard `json:"columns"`
}

type KanbanCard struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	DueDate  *string   `json:"dueDate,omitempty"`
	Progress int       `json:"progress,omitempty"`
}

// Request payloads

type CreateClientRequest struct {
	Name         string      `json:"name" validate:"required,max=200"`
	CompanyName  string      `json:"companyName" validate:"max=200"`
	Services     ServiceTier `json:"services" validate:"omitempty,oneof=AI WEB SEO UIUX CONSULTING"`
	TotalPayable float64     `json:"totalPayable" validate:"gte=0"`
	AssignedTo   []uuid.UUID `json:"assignedTo"`
}

type UpdateClientRequest struct {
	Name         *string      `json:"name" validate:"omitempty,max=200"`
	CompanyName  *string      `json:"companyName" validate:"omitempty,max=200"`
	Services     *ServiceTier `json:"services" validate:"omitempty,oneof=AI WEB SEO UIUX CONSULTING"`
	TotalPayable *float64     `json:"totalPayable" validate:"omitempty,gte=0"`
	AssignedTo   []uuid.UUID  `json:"assignedTo"`
}

type CreateLeadRequest struct {
	Name          string     `json:"name" validate:"max=200"`
	CompanyName   string     `json:"companyName" validate:"max=200"`
	Source        string     `json:"source" validate:"required,max=100"`
	ContactInfo   string     `json:"contactInfo"`
	Status        LeadStatus `json:"status" validate:"omitempty,oneof=COLD WARM HOT"`
	NextFollowUp  *time.Time `json:"nextFollowUp"`
	FeedbackNotes string     `json:"feedbackNotes"`
	AssignedToID  *uuid.UUID `json:"assignedToId"`
}

type UpdateLeadRequest struct {
	Name          *string     `json:"name" validate:"omitempty,max=200"`
	CompanyName   *string     `json:"companyName" validate:"omitempty,max=200"`
	ContactInfo   *string     `json:"contactInfo"`
	Status        *LeadStatus `json:"status" validate:"omitempty,oneof=COLD WARM HOT CONVERTED"`
	NextFollowUp  *time.Time  `json:"nextFollowUp"`
	FeedbackNotes *string     `json:"feedbackNotes"`
	AssignedToID  *uuid.UUID  `json:"assignedToId"`
}

type CreateProjectRequest struct {
	ClientID uuid.UUID     `json:"clientId" validate:"required"`
	Name     string        `json:"name" validate:"required,max=200"`
	Status   ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNING IN_PROGRESS REVIEW COMPLETED"`
	Deadline *time.Time    `json:"deadline"`
	Notes    string        `json:"notes"`
}

type UpdateProjectRequest struct {
	Name     *string        `json:"name" validate:"omitempty,max=200"`
	Status   *ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNING IN_PROGRESS REVIEW COMPLETED"`
	Deadline *time.Time     `json:"deadline"`
	Notes    *string        `json:"notes"`
}

type CreateTaskRequest struct {
	ProjectID    uuid.UUID    `json:"projectId" validate:"required"`
	Name         string       `json:"name" validate:"required,max=200"`
	AssignedToID *uuid.UUID   `json:"assignedToId"`
	Status       TaskStatus   `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS REVIEW DONE"`
	Priority     TaskPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate      *time.Time   `json:"dueDate"`
}

type UpdateTaskRequest struct {
	Name         *string       `json:"name" validate:"omitempty,max=200"`
	AssignedToID *uuid.UUID    `json:"assignedToId"`
	Status       *TaskStatus   `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS REVIEW DONE"`
	Priority     *TaskPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	IsCompleted  *bool         `json:"isCompleted"`
	DueDate      *time.Time    `json:"dueDate"`
}

type CreateChecklistItemRequest struct {
	ItemName string `json:"itemName" validate:"required,max=200"`
}

type CreateInteractionRequest struct {
	ClientID        *uuid.UUID      `json:"clientId"`
	LeadID          *uuid.UUID      `json:"leadId"`
	InteractionType InteractionType `json:"interactionType" validate:"omitempty,oneof=CALL EMAIL MEETING NOTE"`
	Notes           string          `json:"notes" validate:"required"`
}

type CreateTransactionRequest struct {
	ProjectID       *uuid.UUID      `json:"projectId"`
	ClientID        *uuid.UUID      `json:"clientId"`
	TransactionType TransactionType `json:"transactionType" validate:"required,oneof=INCOME EXPENSE"`
	Amount          float64         `json:"amount" validate:"required,gt=0"`
	Date            time.Time       `json:"date"`
	Description     string          `json:"description" validate:"max=255"`
}

type UpdateTransactionRequest struct {
	ProjectID       *uuid.UUID       `json:"projectId"`
	ClientID        *uuid.UUID       `json:"clientId"`
	TransactionType *TransactionType `json:"transactionType" validate:"omitempty,oneof=INCOME EXPENSE"`
	Amount          *float64         `json:"amount" validate:"omitempty,gt=0"`
	Date            *time.Time       `json:"date"`
	Description     *string          `json:"description" validate:"omitempty,max=255"`
}

type CreateKPITargetRequest struct {
	StaffID            uuid.UUID `json:"staffId" validate:"required"`
	Month              string    `json:"month" validate:"required"` // YYYY-MM
	TargetLeads        int       `json:"targetLeads" validate:"gte=0"`
	TargetTasks        int       `json:"targetTasks" validate:"gte=0"`
	TargetInteractions int       `json:"targetInteractions" validate:"gte=0"`
	TargetRevenue      float64   `json:"targetRevenue" validate:"gte=0"`
	Notes              string    `json:"notes"`
}

type UpdateKPITargetRequest struct {
	TargetLeads        *int     `json:"targetLeads" validate:"omitempty,gte=0"`
	TargetTasks        *int     `json:"targetTasks" validate:"omitempty,gte=0"`
	TargetInteractions *int     `json:"targetInteractions" validate:"omitempty,gte=0"`
	TargetRevenue      *float64 `json:"targetRevenue" validate:"omitempty,gte=0"`
	Notes              *string  `json:"notes"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	DisplayName string   `json:"displayName" validate:"max=200"`
	Role        UserRole `json:"role" validate:"omitempty,oneof=admin manager agent"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}
