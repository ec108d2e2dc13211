package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when the database does not (sqlite has no
// gen_random_uuid()).
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// UserRole represents an application role held by a user
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleAgent   UserRole = "agent"
)

// User represents a staff member
type User struct {
	BaseModel
	Email        string   `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string   `gorm:"type:varchar(255);not null;column:password_hash"`
	DisplayName  string   `gorm:"type:varchar(200);column:display_name"`
	Role         UserRole `gorm:"type:varchar(50);not null;default:'agent';index"`
	IsActive     bool     `gorm:"not null;default:true;column:is_active"`
}

// ServiceTier represents the service a client is engaged for
type ServiceTier string

const (
	ServiceAI         ServiceTier = "AI"
	ServiceWeb        ServiceTier = "WEB"
	ServiceSEO        ServiceTier = "SEO"
	ServiceUIUX       ServiceTier = "UIUX"
	ServiceConsulting ServiceTier = "CONSULTING"
)

// Client represents a paying customer
type Client struct {
	BaseModel
	Name         string      `gorm:"type:varchar(200);not null;index"`
	CompanyName  string      `gorm:"type:varchar(200);column:company_name"`
	Services     ServiceTier `gorm:"type:varchar(50);not null;default:'CONSULTING'"`
	TotalPayable float64     `gorm:"type:decimal(12,2);not null;default:0;column:total_payable"`
	// PaidAmount is derived from INCOME transactions; never set directly.
	PaidAmount float64   `gorm:"type:decimal(12,2);not null;default:0;column:paid_amount"`
	AssignedTo []User    `gorm:"many2many:client_assignments"`
	Projects   []Project `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
}

// DueAmount is the outstanding balance. Computed, not stored.
func (c *Client) DueAmount() float64 {
	return c.TotalPayable - c.PaidAmount
}

// LeadStatus represents the temperature of a lead.
// Transitions are forward-only; CONVERTED is terminal.
type LeadStatus string

const (
	LeadStatusCold      LeadStatus = "COLD"
	LeadStatusWarm      LeadStatus = "WARM"
	LeadStatusHot       LeadStatus = "HOT"
	LeadStatusConverted LeadStatus = "CONVERTED"
)

// IsValid checks if the LeadStatus is a valid enum value
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusCold, LeadStatusWarm, LeadStatusHot, LeadStatusConverted:
		return true
	}
	return false
}

// Lead represents a sales prospect
type Lead struct {
	BaseModel
	Name          string     `gorm:"type:varchar(200)"`
	CompanyName   string     `gorm:"type:varchar(200);column:company_name"`
	Source        string     `gorm:"type:varchar(100);not null"`
	ContactInfo   string     `gorm:"type:text;column:contact_info"`
	Status        LeadStatus `gorm:"type:varchar(20);not null;default:'COLD';index"`
	NextFollowUp  *time.Time `gorm:"type:date;column:next_follow_up"`
	FeedbackNotes string     `gorm:"type:text;column:feedback_notes"`
	AssignedToID  *uuid.UUID `gorm:"type:uuid;index;column:assigned_to_id"`
	AssignedTo    *User      `gorm:"foreignKey:AssignedToID"`
	// ConvertedAt is stamped exactly once, at the transition into CONVERTED.
	ConvertedAt *time.Time `gorm:"column:converted_at"`
}

// DisplayName returns the lead's name, falling back to its source
func (l *Lead) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Source
}

// ProjectStatus represents the status of a project
type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "PLANNING"
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS"
	ProjectStatusReview     ProjectStatus = "REVIEW"
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"
)

// IsValid checks if the ProjectStatus is a valid enum value
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusReview, ProjectStatusCompleted:
		return true
	}
	return false
}

// Project represents work being performed for a client
type Project struct {
	BaseModel
	ClientID uuid.UUID     `gorm:"type:uuid;not null;index;column:client_id"`
	Client   *Client       `gorm:"foreignKey:ClientID"`
	Name     string        `gorm:"type:varchar(200);not null;index"`
	Status   ProjectStatus `gorm:"type:varchar(20);not null;default:'PLANNING';index"`
	Deadline *time.Time    `gorm:"type:date"`
	// ProgressPercentage is derived from task statuses; never authoritative input.
	ProgressPercentage int    `gorm:"not null;default:0;column:progress_percentage"`
	Notes              string `gorm:"type:text"`
	Tasks              []Task `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// TaskStatus represents the status of a task on the board
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusReview     TaskStatus = "REVIEW"
	TaskStatusDone       TaskStatus = "DONE"
)

// IsValid checks if the TaskStatus is a valid enum value
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Task represents a unit of work within a project
type Task struct {
	BaseModel
	ProjectID    uuid.UUID    `gorm:"type:uuid;not null;index;column:project_id"`
	Project      *Project     `gorm:"foreignKey:ProjectID"`
	Name         string       `gorm:"type:varchar(200);not null"`
	AssignedToID *uuid.UUID   `gorm:"type:uuid;index;column:assigned_to_id"`
	AssignedTo   *User        `gorm:"foreignKey:AssignedToID"`
	Status       TaskStatus   `gorm:"type:varchar(20);not null;default:'TODO';index"`
	Priority     TaskPriority `gorm:"type:varchar(10);not null;default:'MEDIUM'"`
	// IsCompleted always mirrors status == DONE, whichever field a caller mutated.
	IsCompleted bool            `gorm:"not null;default:false;column:is_completed"`
	DueDate     *time.Time      `gorm:"type:date;column:due_date"`
	Checklist   []TaskChecklist `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// TaskChecklist is an informational sub-item of a task.
// Checklist completion does not feed project progress.
type TaskChecklist struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index;column:task_id"`
	Task      *Task     `gorm:"foreignKey:TaskID"`
	ItemName  string    `gorm:"type:varchar(200);not null;column:item_name"`
	IsDone    bool      `gorm:"not null;default:false;column:is_done"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when the database does not.
func (c *TaskChecklist) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// InteractionType represents the kind of touchpoint recorded
type InteractionType string

const (
	InteractionCall    InteractionType = "CALL"
	InteractionEmail   InteractionType = "EMAIL"
	InteractionMeeting InteractionType = "MEETING"
	InteractionNote    InteractionType = "NOTE"
)

// Interaction is an immutable history record linked to a client or a lead.
// On lead conversion interactions are relinked to the new client, never deleted.
type Interaction struct {
	BaseModel
	ClientID        *uuid.UUID      `gorm:"type:uuid;index;column:client_id"`
	Client          *Client         `gorm:"foreignKey:ClientID"`
	LeadID          *uuid.UUID      `gorm:"type:uuid;index;column:lead_id"`
	Lead            *Lead           `gorm:"foreignKey:LeadID"`
	CreatedByID     *uuid.UUID      `gorm:"type:uuid;column:created_by_id"`
	CreatedBy       *User           `gorm:"foreignKey:CreatedByID"`
	InteractionType InteractionType `gorm:"type:varchar(20);not null;default:'NOTE';column:interaction_type"`
	Notes           string          `gorm:"type:text"`
}

// TransactionType represents the direction of money movement
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// Transaction is the sole source feeding Client.PaidAmount and revenue KPIs.
// A transaction links to a client, a project, or both; project-side income
// only counts toward paid_amount when the transaction's own client link is
// absent, so a row carrying both links is never counted twice.
type Transaction struct {
	BaseModel
	ProjectID       *uuid.UUID      `gorm:"type:uuid;index;column:project_id"`
	Project         *Project        `gorm:"foreignKey:ProjectID"`
	ClientID        *uuid.UUID      `gorm:"type:uuid;index;column:client_id"`
	Client          *Client         `gorm:"foreignKey:ClientID"`
	TransactionType TransactionType `gorm:"type:varchar(10);not null;default:'EXPENSE';column:transaction_type;index"`
	Amount          float64         `gorm:"type:decimal(12,2);not null"`
	Date            time.Time       `gorm:"type:date;not null"`
	Description     string          `gorm:"type:varchar(255)"`
	CreatedByID     *uuid.UUID      `gorm:"type:uuid;column:created_by_id"`
	CreatedBy       *User           `gorm:"foreignKey:CreatedByID"`
}

// Document is a stored attachment, optionally linked to a project, client or lead.
// On lead conversion documents move to the new client and the lead link is cleared.
type Document struct {
	BaseModel
	ProjectID    *uuid.UUID `gorm:"type:uuid;index;column:project_id"`
	Project      *Project   `gorm:"foreignKey:ProjectID"`
	ClientID     *uuid.UUID `gorm:"type:uuid;index;column:client_id"`
	Client       *Client    `gorm:"foreignKey:ClientID"`
	LeadID       *uuid.UUID `gorm:"type:uuid;index;column:lead_id"`
	Lead         *Lead      `gorm:"foreignKey:LeadID"`
	Title        string     `gorm:"type:varchar(255);not null"`
	StoragePath  string     `gorm:"type:varchar(500);not null;column:storage_path"`
	UploadedByID *uuid.UUID `gorm:"type:uuid;column:uploaded_by_id"`
	UploadedBy   *User      `gorm:"foreignKey:UploadedByID"`
}

// KPITarget holds the manager-set monthly targets for one staff member.
// All actual figures are computed on read, never stored.
type KPITarget struct {
	BaseModel
	StaffID uuid.UUID `gorm:"type:uuid;not null;column:staff_id;uniqueIndex:idx_kpi_staff_month"`
	Staff   *User     `gorm:"foreignKey:StaffID"`
	// Month is the first day of the target month.
	Month              time.Time  `gorm:"type:date;not null;uniqueIndex:idx_kpi_staff_month"`
	TargetLeads        int        `gorm:"not null;default:0;column:target_leads"`
	TargetTasks        int        `gorm:"not null;default:0;column:target_tasks"`
	TargetInteractions int        `gorm:"not null;default:0;column:target_interactions"`
	TargetRevenue      float64    `gorm:"type:decimal(12,2);not null;default:0;column:target_revenue"`
	Notes              string     `gorm:"type:text"`
	CreatedByID        *uuid.UUID `gorm:"type:uuid;column:created_by_id"`
	CreatedBy          *User      `gorm:"foreignKey:CreatedByID"`
}

// EntityKind identifies an entity type for access scoping
type EntityKind string

const (
	KindClient      EntityKind = "client"
	KindLead        EntityKind = "lead"
	KindProject     EntityKind = "project"
	KindTask        EntityKind = "task"
	KindTransaction EntityKind = "transaction"
)
