package reminder

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/homebudget/budget-service/internal/config"
	"github.com/homebudget/budget-service/internal/models"
	"github.com/homebudget/budget-service/internal/schedule"
	"github.com/homebudget/budget-service/internal/service"
	"github.com/homebudget/budget-service/internal/utils/email"
)

// Reminder emails the household address on a cron schedule about plans whose
// current installment month is still unpaid.
type Reminder struct {
	svc    *service.Service
	sender *email.Sender
	cfg    *config.Config
	log    *logrus.Logger
	cron   *cron.Cron
}

// NewReminder creates a reminder job
func NewReminder(svc *service.Service, sender *email.Sender, cfg *config.Config, log *logrus.Logger) *Reminder {
	return &Reminder{
		svc:    svc,
		sender: sender,
		cfg:    cfg,
		log:    log,
		cron:   cron.New(),
	}
}

// Start schedules the job. No-op when REMINDER_EMAIL is unset.
func (r *Reminder) Start() error {
	if r.cfg.ReminderEmail == "" {
		r.log.Info("Reminder email not configured, skipping reminder job")
		return nil
	}
	if _, err := r.cron.AddFunc(r.cfg.ReminderCron, r.Run); err != nil {
		return err
	}
	r.cron.Start()
	r.log.Infof("Reminder job scheduled: %s", r.cfg.ReminderCron)
	return nil
}

// Stop halts the cron scheduler
func (r *Reminder) Stop() {
	r.cron.Stop()
}

// Run sends one reminder per plan whose current month is in the plan's
// schedule and not marked paid
func (r *Reminder) Run() {
	ctx := context.Background()
	statuses, err := r.svc.ListPlanStatuses(ctx)
	if err != nil {
		r.log.Errorf("Reminder run failed to list plan statuses: %v", err)
		return
	}

	current := schedule.MonthOf(time.Now())
	for _, st := range statuses {
		if !r.due(st, current) {
			continue
		}
		if err := r.sender.SendInstallmentReminder(
			r.cfg.ReminderEmail, st.Plan.Name, current.String(), st.Plan.MonthlyAmount,
		); err != nil {
			r.log.Errorf("Failed to send reminder for plan %d: %v", st.Plan.ID, err)
		}
	}
}

func (r *Reminder) due(st models.PlanStatus, current schedule.YearMonth) bool {
	if current.Before(schedule.MonthOf(st.Plan.StartDate)) || schedule.MonthOf(st.Plan.EndDate).Before(current) {
		return false
	}
	for _, p := range st.Payments {
		if schedule.MonthOf(p.PaymentMonth) == current && p.Status == models.StatusPaid {
			return false
		}
	}
	return true
}
