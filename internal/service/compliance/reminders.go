package compliance

import (
	"context"

	"wathaci/internal/domain"
	"wathaci/internal/notify"
)

const reminderBatch = 100

// SendReminders queues a reminder for every open task due within
// ReminderWindow that has not been reminded, then stamps reminder_sent_at.
func (s *Service) SendReminders(ctx context.Context) (int, error) {
	now := s.now()
	tasks, err := s.repo.ListDueForReminder(ctx, now.Add(ReminderWindow), reminderBatch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		_, err := s.notifier.Enqueue(ctx, notify.Request{
			UserID:   task.UserID,
			Template: notify.TemplateComplianceReminder,
			Channels: []domain.Channel{domain.ChannelEmail, domain.ChannelInApp},
			Data: notify.Data{
				Title:   task.Title,
				DueDate: task.DueDate.Format(DateLayout),
			},
		})
		if err != nil {
			s.logger.Error().Err(err).Str("task_id", task.ID).Msg("compliance: enqueue reminder")
			continue
		}
		if err := s.repo.MarkReminded(ctx, task.ID, now); err != nil {
			s.logger.Error().Err(err).Str("task_id", task.ID).Msg("compliance: mark reminded")
			continue
		}
		sent++
	}
	return sent, nil
}
