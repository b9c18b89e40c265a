package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"geargrab/internal/app/policies"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

type fakeDialer struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeDialer) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

var sample = policies.Email{
	To:      "owner@example.com",
	ToName:  "Olga",
	Subject: "New booking request",
	HTML:    "<p>hi</p>",
	Text:    "hi",
	Tags:    map[string]string{"template": "new_booking_request"},
}

func TestSESSenderBuildsMessage(t *testing.T) {
	api := &fakeSES{}
	s := &SESSender{Client: api, From: "bookings@geargrab.test", FromName: "GearGrab"}

	res := s.Send(context.Background(), sample)
	require.True(t, res.Success)
	assert.Equal(t, "ses-1", res.MessageID)

	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "GearGrab <bookings@geargrab.test>", aws.ToString(in.Source))
	assert.Equal(t, []string{"owner@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "New booking request", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "<p>hi</p>", aws.ToString(in.Message.Body.Html.Data))
	assert.Equal(t, "hi", aws.ToString(in.Message.Body.Text.Data))
	require.Len(t, in.Tags, 1)
	assert.Equal(t, "template", aws.ToString(in.Tags[0].Name))
}

func TestSESSenderReportsFailureWithoutError(t *testing.T) {
	s := &SESSender{Client: &fakeSES{err: errors.New("throttled")}, From: "bookings@geargrab.test"}

	res := s.Send(context.Background(), sample)
	assert.False(t, res.Success)
	assert.Equal(t, "throttled", res.Error)
}

func TestSMTPSenderSends(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{Client: d, From: "bookings@geargrab.test", FromName: "GearGrab"}

	res := s.Send(context.Background(), sample)
	require.True(t, res.Success, res.Error)
	assert.NotEmpty(t, res.MessageID)

	require.Len(t, d.sent, 1)
	msg := d.sent[0]
	assert.Equal(t, []string{"New booking request"}, msg.GetGenHeader(mail.HeaderSubject))
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"owner@example.com"}, rcpts)
}

func TestSMTPSenderRejectsBadAddress(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{Client: d, From: "bookings@geargrab.test"}

	bad := sample
	bad.To = "not an address"
	bad.ToName = ""
	res := s.Send(context.Background(), bad)
	assert.False(t, res.Success)
	assert.Empty(t, d.sent)
}

func TestSMTPSenderDialFailure(t *testing.T) {
	s := &SMTPSender{Client: &fakeDialer{err: errors.New("connection refused")}, From: "bookings@geargrab.test"}

	res := s.Send(context.Background(), sample)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "connection refused")
}

func TestLogSenderAlwaysSucceeds(t *testing.T) {
	res := LogSender{}.Send(context.Background(), sample)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.MessageID)
}
