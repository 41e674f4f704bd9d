package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
}

func TestSESSender_Send(t *testing.T) {
	client := &fakeSES{}
	s := NewSESSenderWithClient(client, "no-reply@trackify.fit")

	id, err := s.Send(context.Background(), Message{To: "a@b.co", Subject: "Hi", Text: "plain", HTML: "<p>html</p>"})
	require.NoError(t, err)
	require.Equal(t, "ses-123", id)

	require.Equal(t, []string{"a@b.co"}, client.input.Destination.ToAddresses)
	require.Equal(t, "no-reply@trackify.fit", aws.ToString(client.input.Source))
	require.Equal(t, "Hi", aws.ToString(client.input.Message.Subject.Data))
	require.Equal(t, "plain", aws.ToString(client.input.Message.Body.Text.Data))
	require.Equal(t, "<p>html</p>", aws.ToString(client.input.Message.Body.Html.Data))
}

func TestSESSender_PropagatesError(t *testing.T) {
	s := NewSESSenderWithClient(&fakeSES{err: errors.New("throttled")}, "x@y.z")
	_, err := s.Send(context.Background(), Message{To: "a@b.co", Text: "x"})
	require.ErrorContains(t, err, "throttled")
}

func TestSend_RejectsIncompleteMessage(t *testing.T) {
	client := &fakeSES{}
	s := NewSESSenderWithClient(client, "x@y.z")

	_, err := s.Send(context.Background(), Message{Text: "x"})
	require.Error(t, err)
	_, err = s.Send(context.Background(), Message{To: "a@b.co"})
	require.Error(t, err)
	require.Nil(t, client.input)
}

func TestLogSender_Send(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(zerolog.New(&buf))

	id, err := s.Send(context.Background(), Message{To: "a@b.co", Subject: "Reset", Text: "link"})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Contains(t, buf.String(), `"to":"a@b.co"`)
}
