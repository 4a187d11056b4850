package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeMessages struct {
	sent []*twilioApi.CreateMessageParams
	err  error
}

func (f *fakeMessages) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &twilioApi.ApiV2010Message{}, nil
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "whatsapp:+56912345678", Address("+56912345678"))
	assert.Equal(t, "whatsapp:+56912345678", Address("whatsapp:+56912345678"))
	assert.Equal(t, "", Address("  "))
}

func TestConfig_Validate(t *testing.T) {
	err := Config{AccountSID: "AC1"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth token")
	assert.Contains(t, err.Error(), "sender number")

	assert.NoError(t, Config{AccountSID: "AC1", AuthToken: "t", From: "+1555"}.Validate())
}

func TestNewTwilioNotifier_InvalidConfig(t *testing.T) {
	_, err := NewTwilioNotifier(Config{})
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "initialize", sendErr.Op)
}

func TestTwilioNotifier_Send(t *testing.T) {
	api := &fakeMessages{}
	n := newTwilioNotifier(api, "+14155238886")

	err := n.Send(context.Background(), "whatsapp:+56912345678", "✅ Event scheduled")
	require.NoError(t, err)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "whatsapp:+56912345678", *api.sent[0].To)
	assert.Equal(t, "whatsapp:+14155238886", *api.sent[0].From)
	assert.Equal(t, "✅ Event scheduled", *api.sent[0].Body)
}

func TestTwilioNotifier_SendErrors(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeMessages
		to   string
		text string
		ctx  func() context.Context
	}{
		{name: "empty recipient", api: &fakeMessages{}, to: "", text: "hi", ctx: context.Background},
		{name: "empty text", api: &fakeMessages{}, to: "+1", text: "", ctx: context.Background},
		{name: "api failure", api: &fakeMessages{err: errors.New("status 401")}, to: "+1", text: "hi", ctx: context.Background},
		{
			name: "cancelled context", api: &fakeMessages{}, to: "+1", text: "hi",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTwilioNotifier(tt.api, "+1555")
			err := n.Send(tt.ctx(), tt.to, tt.text)

			var sendErr *SendError
			require.ErrorAs(t, err, &sendErr)
			assert.Equal(t, "send", sendErr.Op)
			assert.Empty(t, tt.api.sent)
		})
	}
}

func TestSendError(t *testing.T) {
	inner := errors.New("boom")
	err := &SendError{Op: "send", To: "whatsapp:+1", Err: inner}
	assert.Equal(t, "whatsapp send (to: whatsapp:+1): boom", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Equal(t, "whatsapp initialize: boom", (&SendError{Op: "initialize", Err: inner}).Error())
}

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewConsoleNotifier(&buf)

	require.NoError(t, n.Send(context.Background(), "whatsapp:+1", "hello"))
	assert.Equal(t, "→ whatsapp:+1\nhello\n\n", buf.String())
}
