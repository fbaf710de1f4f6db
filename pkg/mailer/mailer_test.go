package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
	"github.com/apexev/apexev-backend/pkg/logger"
)

func sampleReminder() AppointmentReminder {
	return AppointmentReminder{
		Email:    "a@x.com",
		FullName: "Nguyen",
		Date:     "05/06/2025",
		Time:     "09:00",
		Vehicle:  "2022 Toyota Vios",
	}
}

func testLogger(out io.Writer) *logger.Logger {
	return logger.New(logger.Options{ServiceName: "mailer-test", Output: out})
}

type fakePublisher struct {
	publishFn func(ctx context.Context, in *sns.PublishInput) (*sns.PublishOutput, error)
	inputs    []*sns.PublishInput
}

func (f *fakePublisher) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.publishFn != nil {
		return f.publishFn(ctx, in)
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

type fakeSES struct {
	sendFn func(ctx context.Context, in *ses.SendEmailInput) (*ses.SendEmailOutput, error)
	inputs []*ses.SendEmailInput
}

func (f *fakeSES) SendEmail(ctx context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.sendFn != nil {
		return f.sendFn(ctx, in)
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

type fakeSender struct {
	sendFn func(ctx context.Context, r AppointmentReminder) error
	calls  int
}

func (f *fakeSender) SendAppointmentReminder(ctx context.Context, r AppointmentReminder) error {
	f.calls++
	if f.sendFn != nil {
		return f.sendFn(ctx, r)
	}
	return nil
}

func TestReminderValidate(t *testing.T) {
	if err := sampleReminder().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := sampleReminder()
	missing.Email = " "
	if err := missing.Validate(); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	malformed := sampleReminder()
	malformed.Email = "not-an-address"
	if err := malformed.Validate(); err == nil {
		t.Fatal("expected malformed email to fail")
	}
}

func TestSNSSenderPublishesReminderEvent(t *testing.T) {
	pub := &fakePublisher{}
	sender, err := NewSNSSender(pub, "arn:aws:sns:ap-southeast-1:123:email", testLogger(io.Discard))
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	if err := sender.SendAppointmentReminder(context.Background(), sampleReminder()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(pub.inputs) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.inputs))
	}
	in := pub.inputs[0]
	if aws.ToString(in.TopicArn) != "arn:aws:sns:ap-southeast-1:123:email" {
		t.Fatalf("unexpected topic %s", aws.ToString(in.TopicArn))
	}
	if aws.ToString(in.Subject) != appointmentReminderSubject {
		t.Fatalf("unexpected subject %q", aws.ToString(in.Subject))
	}
	if got := aws.ToString(in.MessageAttributes["type"].StringValue); got != EventAppointmentReminder {
		t.Fatalf("unexpected type attribute %q", got)
	}

	var event map[string]string
	if err := json.Unmarshal([]byte(aws.ToString(in.Message)), &event); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	want := map[string]string{
		"type":            "APPOINTMENT_REMINDER",
		"email":           "a@x.com",
		"fullName":        "Nguyen",
		"appointmentDate": "05/06/2025",
		"appointmentTime": "09:00",
		"vehicleInfo":     "2022 Toyota Vios",
	}
	for key, value := range want {
		if event[key] != value {
			t.Fatalf("event[%s] = %q want %q", key, event[key], value)
		}
	}
}

func TestSNSSenderUsesReminderSubject(t *testing.T) {
	pub := &fakePublisher{}
	sender, _ := NewSNSSender(pub, "arn", testLogger(io.Discard))
	reminder := sampleReminder()
	reminder.Subject = "  Lịch hẹn ngày mai  "

	if err := sender.SendAppointmentReminder(context.Background(), reminder); err != nil {
		t.Fatalf("send: %v", err)
	}
	in := pub.inputs[0]
	if got := aws.ToString(in.Subject); got != "Lịch hẹn ngày mai" {
		t.Fatalf("unexpected subject %q", got)
	}
	var event EmailEvent
	if err := json.Unmarshal([]byte(aws.ToString(in.Message)), &event); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if event.Subject != "Lịch hẹn ngày mai" {
		t.Fatalf("unexpected event subject %q", event.Subject)
	}
}

func TestSNSSenderWrapsPublishFailure(t *testing.T) {
	pub := &fakePublisher{publishFn: func(context.Context, *sns.PublishInput) (*sns.PublishOutput, error) {
		return nil, errors.New("throttled")
	}}
	sender, _ := NewSNSSender(pub, "arn", testLogger(io.Discard))

	err := sender.SendAppointmentReminder(context.Background(), sampleReminder())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestSNSSenderSkipsInvalidReminder(t *testing.T) {
	pub := &fakePublisher{}
	sender, _ := NewSNSSender(pub, "arn", testLogger(io.Discard))
	bad := sampleReminder()
	bad.Email = ""
	if err := sender.SendAppointmentReminder(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
	if len(pub.inputs) != 0 {
		t.Fatal("invalid reminders must not be published")
	}
}

func TestSESSenderRendersAllFields(t *testing.T) {
	client := &fakeSES{}
	sender, err := NewSESSender(client, "no-reply@apexev.vn")
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	if err := sender.SendAppointmentReminder(context.Background(), sampleReminder()); err != nil {
		t.Fatalf("send: %v", err)
	}

	in := client.inputs[0]
	if in.Destination.ToAddresses[0] != "a@x.com" {
		t.Fatalf("unexpected recipient %v", in.Destination.ToAddresses)
	}
	if aws.ToString(in.Source) != "no-reply@apexev.vn" {
		t.Fatalf("unexpected source %s", aws.ToString(in.Source))
	}
	for _, body := range []string{aws.ToString(in.Message.Body.Html.Data), aws.ToString(in.Message.Body.Text.Data)} {
		for _, value := range []string{"Nguyen", "05/06/2025", "09:00", "2022 Toyota Vios"} {
			if !strings.Contains(body, value) {
				t.Fatalf("body missing %q:\n%s", value, body)
			}
		}
	}
}

func TestSESSenderEscapesHTML(t *testing.T) {
	client := &fakeSES{}
	sender, _ := NewSESSender(client, "no-reply@apexev.vn")
	r := sampleReminder()
	r.FullName = "<script>alert(1)</script>"
	if err := sender.SendAppointmentReminder(context.Background(), r); err != nil {
		t.Fatalf("send: %v", err)
	}
	if strings.Contains(aws.ToString(client.inputs[0].Message.Body.Html.Data), "<script>") {
		t.Fatal("expected customer name to be escaped")
	}
}

func TestLogSenderWritesReminderFields(t *testing.T) {
	buf := &bytes.Buffer{}
	sender, err := NewLogSender(testLogger(buf))
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	if err := sender.SendAppointmentReminder(context.Background(), sampleReminder()); err != nil {
		t.Fatalf("send: %v", err)
	}
	for _, value := range []string{"a@x.com", "Nguyen", "05/06/2025", "09:00", "2022 Toyota Vios"} {
		if !strings.Contains(buf.String(), value) {
			t.Fatalf("log entry missing %q: %s", value, buf.String())
		}
	}
}

func TestRetryingSenderRetriesTransientFailures(t *testing.T) {
	next := &fakeSender{}
	next.sendFn = func(context.Context, AppointmentReminder) error {
		if next.calls < 3 {
			return pkgerrors.New(pkgerrors.CodeDependency, "temporarily unavailable")
		}
		return nil
	}
	sender, err := WithRetry(next, RetryOptions{MaxAttempts: 3, Backoff: time.Millisecond, Timeout: time.Second})
	if err != nil {
		t.Fatalf("with retry: %v", err)
	}

	if err := sender.SendAppointmentReminder(context.Background(), sampleReminder()); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if next.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", next.calls)
	}
}

func TestRetryingSenderGivesUpAfterMaxAttempts(t *testing.T) {
	next := &fakeSender{sendFn: func(context.Context, AppointmentReminder) error {
		return errors.New("connection reset")
	}}
	sender, _ := WithRetry(next, RetryOptions{MaxAttempts: 2, Backoff: time.Millisecond, Timeout: time.Second})

	if err := sender.SendAppointmentReminder(context.Background(), sampleReminder()); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if next.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", next.calls)
	}
}

func TestRetryingSenderDoesNotRetryPermanentErrors(t *testing.T) {
	next := &fakeSender{sendFn: func(context.Context, AppointmentReminder) error {
		return pkgerrors.New(pkgerrors.CodeValidation, "mailbox rejected")
	}}
	sender, _ := WithRetry(next, RetryOptions{MaxAttempts: 5, Backoff: time.Millisecond, Timeout: time.Second})

	err := sender.SendAppointmentReminder(context.Background(), sampleReminder())
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", next.calls)
	}
}

func TestRetryingSenderBoundsEachAttempt(t *testing.T) {
	next := &fakeSender{sendFn: func(ctx context.Context, _ AppointmentReminder) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	sender, _ := WithRetry(next, RetryOptions{MaxAttempts: 2, Backoff: time.Millisecond, Timeout: 20 * time.Millisecond})

	start := time.Now()
	err := sender.SendAppointmentReminder(context.Background(), sampleReminder())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", next.calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("attempts were not bounded, took %v", elapsed)
	}
}
