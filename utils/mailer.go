package utils

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Mailer sends plain-text mail through SES.
type Mailer struct {
	client *ses.Client
	from   string
}

func NewMailer(cfg aws.Config, from string) *Mailer {
	return &Mailer{client: ses.NewFromConfig(cfg), from: from}
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(m.from),
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}

// MealReminderEmail renders the reminder for one meal.
func MealReminderEmail(name, meal string) (subject, body string) {
	if name == "" {
		name = "there"
	}
	subject = fmt.Sprintf("Don't forget to log your %s", meal)
	body = fmt.Sprintf("Hi %s,\n\nYou haven't logged %s yet today. "+
		"Keeping your food log complete keeps your streak going.\n", name, meal)
	return subject, body
}
