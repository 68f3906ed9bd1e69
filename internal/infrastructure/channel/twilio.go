// Package channel implements outbound WhatsApp delivery through Twilio.
package channel

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"flowcore-server/services/message-worker/internal/domain/channel"
	"flowcore-server/services/message-worker/internal/domain/workspace"
	"flowcore-server/services/message-worker/internal/infrastructure/metrics"
	"flowcore-server/services/message-worker/internal/utils/phoneutil"
)

// TwilioSender implements channel.Sender against the Twilio Messages API.
// Credentials are loaded per workspace; sandbox-mode workspaces send from
// the shared sandbox number.
type TwilioSender struct {
	client      *resty.Client
	baseURL     string
	sandboxFrom string
	connections workspace.ConnectionRepository
	log         zerolog.Logger
}

var _ channel.Sender = (*TwilioSender)(nil)

// NewTwilioSender creates a Twilio-backed sender.
func NewTwilioSender(client *resty.Client, baseURL, sandboxFrom string, connections workspace.ConnectionRepository, log zerolog.Logger) *TwilioSender {
	return &TwilioSender{
		client:      client,
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		sandboxFrom: sandboxFrom,
		connections: connections,
		log:         log.With().Str("component", "twilio-sender").Logger(),
	}
}

// Send delivers one message to a WhatsApp number ("whatsapp:+..." form).
func (s *TwilioSender) Send(ctx context.Context, workspaceID, to, body string) error {
	conn, err := s.connections.GetChannelConnection(ctx, workspaceID)
	if err != nil {
		metrics.RecordChannelSend("error")
		return fmt.Errorf("load channel connection: %w", err)
	}
	if conn == nil || conn.AccountSID == "" || conn.AuthToken == "" {
		metrics.RecordChannelSend("not_connected")
		return fmt.Errorf("workspace %s has no channel connection", workspaceID)
	}

	from := phoneutil.WhatsApp(conn.PhoneNumber)
	if conn.Mode == workspace.ModeSandbox {
		from = s.sandboxFrom
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(conn.AccountSID, conn.AuthToken).
		SetFormData(map[string]string{
			"From": from,
			"To":   phoneutil.WhatsApp(to),
			"Body": body,
		}).
		Post(fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, conn.AccountSID))
	if err != nil {
		metrics.RecordChannelSend("error")
		return fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() {
		metrics.RecordChannelSend("error")
		return fmt.Errorf("send message: provider returned %d", resp.StatusCode())
	}

	metrics.RecordChannelSend("ok")
	s.log.Debug().
		Str("workspace_id", workspaceID).
		Str("to", to).
		Msg("message delivered")
	return nil
}
