package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/techvilo/crm-api/internal/notify"
	"github.com/techvilo/crm-api/internal/repository"
	"github.com/techvilo/crm-api/internal/service"
	"go.uber.org/zap"
)

// FollowUpJob mails staff a digest of leads whose follow-up is due today
type FollowUpJob struct {
	leadService *service.LeadService
	userRepo    *repository.UserRepository
	notifier    notify.Notifier
	logger      *zap.Logger
}

func NewFollowUpJob(
	leadService *service.LeadService,
	userRepo *repository.UserRepository,
	notifier notify.Notifier,
	logger *zap.Logger,
) *FollowUpJob {
	return &FollowUpJob{
		leadService: leadService,
		userRepo:    userRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

func (j *FollowUpJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	today := time.Now().UTC()
	leads, err := j.leadService.DueFollowUps(ctx, today)
	if err != nil {
		j.logger.Error("failed to load due follow-ups", zap.Error(err))
		return
	}
	if len(leads) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d lead follow-up(s) due today:\n\n", len(leads))
	for i := range leads {
		lead := &leads[i]
		fmt.Fprintf(&b, "- %s (%s, %s)", lead.DisplayName(), lead.Source, lead.Status)
		if lead.AssignedTo != nil {
			fmt.Fprintf(&b, " assigned to %s", lead.AssignedTo.DisplayName)
		}
		b.WriteString("\n")
	}

	emails, err := j.userRepo.ActiveStaffEmails(ctx)
	if err != nil {
		j.logger.Error("failed to load follow-up recipients", zap.Error(err))
		return
	}
	if err := j.notifier.Send(emails, "Lead follow-ups due today", b.String()); err != nil {
		j.logger.Error("failed to send follow-up digest", zap.Error(err))
		return
	}
	j.logger.Info("follow-up digest sent", zap.Int("leads", len(leads)))
}
