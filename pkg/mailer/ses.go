package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
)

const charsetUTF8 = "UTF-8"

var reminderHTML = template.Must(template.New("appointment_reminder").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
<h2>Nhắc nhở cuộc hẹn</h2>
<p>Xin chào {{.FullName}},</p>
<p>Đây là lời nhắc nhở rằng bạn có cuộc hẹn sắp tới:</p>
<table style="border-collapse: collapse; width: 100%; margin: 20px 0;">
<tr><td><strong>Ngày:</strong></td><td>{{.Date}}</td></tr>
<tr><td><strong>Giờ:</strong></td><td>{{.Time}}</td></tr>
<tr><td><strong>Xe:</strong></td><td>{{.Vehicle}}</td></tr>
</table>
<p>Vui lòng đến đúng giờ. Cảm ơn!</p>
<p>Trân trọng,<br/>Đội ngũ ApexEV</p>
</body>
</html>`))

// SESAPI is the subset of the SES client used to send email directly.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender renders reminders locally and sends them through SES.
type SESSender struct {
	client SESAPI
	from   string
}

func NewSESSender(client SESAPI, from string) (*SESSender, error) {
	if client == nil {
		return nil, errors.New("ses client required")
	}
	if from == "" {
		return nil, errors.New("ses from address required")
	}
	return &SESSender{client: client, from: from}, nil
}

func (s *SESSender) SendAppointmentReminder(ctx context.Context, reminder AppointmentReminder) error {
	if err := reminder.Validate(); err != nil {
		return err
	}

	html, err := renderReminderHTML(reminder)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render reminder email")
	}

	_, err = s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{reminder.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(reminder.SubjectLine()), Charset: aws.String(charsetUTF8)},
			Body: &sestypes.Body{
				Html: &sestypes.Content{Data: aws.String(html), Charset: aws.String(charsetUTF8)},
				Text: &sestypes.Content{Data: aws.String(reminderText(reminder)), Charset: aws.String(charsetUTF8)},
			},
		},
		Source: aws.String(s.from),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("ses send: %w", err), "send reminder email")
	}
	return nil
}

func renderReminderHTML(r AppointmentReminder) (string, error) {
	var buf bytes.Buffer
	if err := reminderHTML.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func reminderText(r AppointmentReminder) string {
	return fmt.Sprintf(
		"Xin chào %s,\n\nBạn có cuộc hẹn sắp tới.\nNgày: %s\nGiờ: %s\nXe: %s\n\nĐội ngũ ApexEV\n",
		r.FullName, r.Date, r.Time, r.Vehicle,
	)
}
