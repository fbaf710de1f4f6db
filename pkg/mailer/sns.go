package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
	"github.com/apexev/apexev-backend/pkg/logger"
)

// SNSPublisher is the subset of the SNS client used to publish email events.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender publishes email events to a topic consumed by the email worker,
// which renders and delivers the message through SES.
type SNSSender struct {
	client   SNSPublisher
	topicARN string
	logg     *logger.Logger
}

func NewSNSSender(client SNSPublisher, topicARN string, logg *logger.Logger) (*SNSSender, error) {
	if client == nil {
		return nil, errors.New("sns client required")
	}
	if topicARN == "" {
		return nil, errors.New("sns topic arn required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &SNSSender{client: client, topicARN: topicARN, logg: logg}, nil
}

func (s *SNSSender) SendAppointmentReminder(ctx context.Context, reminder AppointmentReminder) error {
	if err := reminder.Validate(); err != nil {
		return err
	}
	return s.publish(ctx, reminderEvent(reminder))
}

func (s *SNSSender) publish(ctx context.Context, event EmailEvent) error {
	body, err := event.marshal()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode email event")
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(body),
		Subject:  aws.String(event.Subject),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(event.Type)},
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("sns publish: %w", err), "publish email event")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"message_id": aws.ToString(out.MessageId),
		"email_type": event.Type,
	})
	s.logg.Info(ctx, "email event published")
	return nil
}
