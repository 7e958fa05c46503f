package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/course-vacancy-api/internal/models"
	"github.com/noah-isme/course-vacancy-api/pkg/config"
	"github.com/noah-isme/course-vacancy-api/pkg/jobs"
	"github.com/noah-isme/course-vacancy-api/pkg/mailer"
)

// NotificationService delivers workflow email off the request path. Messages
// go through a retrying job queue so a transient mail failure never rolls back
// or blocks a review decision.
type NotificationService struct {
	queue       *jobs.Queue
	mail        mailer.Mailer
	adminEmails []string
	enabled     bool
	logger      *zap.Logger
}

// NewNotificationService constructs the service and its delivery queue.
func NewNotificationService(cfg config.NotificationsConfig, mail mailer.Mailer, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		mail:        mail,
		adminEmails: cfg.AdminEmails,
		enabled:     cfg.Enabled,
		logger:      logger,
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s.enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	if s.enabled {
		s.queue.Stop()
	}
}

// ProposalSubmitted notifies the admins that a new proposal awaits review.
func (s *NotificationService) ProposalSubmitted(proposal *models.AssignmentProposal, course *models.Course) {
	s.enqueue(mailer.Message{
		To:      s.adminEmails,
		Subject: fmt.Sprintf("New staffing proposal for %s", course.Code),
		TextBody: fmt.Sprintf("%s <%s> proposed a teaching team of %d for %s (%s).",
			proposal.SubmitterName, proposal.SubmitterEmail,
			len(proposal.ProposalData.Assignments), course.Title, course.Code),
	})
}

// ProposalReviewed notifies the submitter of the decision.
func (s *NotificationService) ProposalReviewed(proposal *models.AssignmentProposal, course *models.Course) {
	body := fmt.Sprintf("Your staffing proposal for %s (%s) was %s.",
		course.Title, course.Code, proposal.Status)
	if proposal.AdminNotes != nil && *proposal.AdminNotes != "" {
		body += "\n\nNotes: " + *proposal.AdminNotes
	}
	s.enqueue(mailer.Message{
		To:       []string{proposal.SubmitterEmail},
		Subject:  fmt.Sprintf("Proposal %s: %s", proposal.Status, course.Code),
		TextBody: body,
	})
}

// ModificationSubmitted notifies the admins of a new modification request.
func (s *NotificationService) ModificationSubmitted(req *models.ModificationRequest, course *models.Course) {
	s.enqueue(mailer.Message{
		To:      s.adminEmails,
		Subject: fmt.Sprintf("Modification request for %s", course.Code),
		TextBody: fmt.Sprintf("%s <%s> requested a %s change on %s (%s):\n\n%s",
			req.RequesterName, req.RequesterEmail, req.ModificationType,
			course.Title, course.Code, req.Description),
	})
}

// ModificationReviewed notifies the requester of the decision.
func (s *NotificationService) ModificationReviewed(req *models.ModificationRequest, course *models.Course) {
	body := fmt.Sprintf("Your %s modification request for %s (%s) was %s.",
		req.ModificationType, course.Title, course.Code, req.Status)
	if req.AdminNotes != nil && *req.AdminNotes != "" {
		body += "\n\nNotes: " + *req.AdminNotes
	}
	s.enqueue(mailer.Message{
		To:       []string{req.RequesterEmail},
		Subject:  fmt.Sprintf("Modification request %s: %s", req.Status, course.Code),
		TextBody: body,
	})
}

// ValidationRequested asks a course coordinator to confirm the attribution.
func (s *NotificationService) ValidationRequested(coordinator *models.CourseCoordinator, course *models.Course) {
	s.enqueue(mailer.Message{
		To:      []string{coordinator.Email},
		Subject: fmt.Sprintf("Please validate the attribution of %s", course.Code),
		TextBody: fmt.Sprintf("You are registered as coordinator of %s (%s). Please review and validate its hour attribution.",
			course.Title, course.Code),
	})
}

func (s *NotificationService) enqueue(msg mailer.Message) {
	if !s.enabled {
		return
	}
	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		if strings.TrimSpace(to) != "" {
			recipients = append(recipients, to)
		}
	}
	if len(recipients) == 0 {
		return
	}
	msg.To = recipients
	if err := s.queue.Enqueue(jobs.Job{Payload: msg}); err != nil {
		s.logger.Warn("notification enqueue failed", zap.String("subject", msg.Subject), zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		return fmt.Errorf("unexpected notification payload type %T", job.Payload)
	}
	return s.mail.Send(ctx, msg)
}
