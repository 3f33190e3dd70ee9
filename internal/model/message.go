package model

// SendPayload is a rendered email handed to the provider chain.
type SendPayload struct {
	To             string
	Subject        string
	HTMLBody       string
	TextBody       string
	IdempotencyKey string // attached by the dispatcher if empty
}

// SendReceipt identifies who delivered a message and how to find it later.
// ProviderID is "none" when no provider was configured and the send was
// dropped on the floor deliberately.
type SendReceipt struct {
	ProviderID string `json:"provider_id"`
	MessageID  string `json:"message_id,omitempty"`
}
