package channel

import "context"

// Sender delivers an outbound message to a customer or admin phone number
// using the workspace's channel credentials.
type Sender interface {
	Send(ctx context.Context, workspaceID, to, body string) error
}
