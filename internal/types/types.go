package types

type SendMessageRequest struct {
	Content string `json:"content"`
}

// Variables are the funnel fields collected so far; absent fields are omitted.
type Variables struct {
	Name             *string `json:"name,omitempty"`
	BirthDate        *string `json:"birthDate,omitempty"`
	WeightLossReason *string `json:"weightLossReason,omitempty"`
}

type ConversationStatus struct {
	PhoneNumber string    `json:"phoneNumber"`
	Status      string    `json:"status"`
	FunnelStep  string    `json:"funnelStep"`
	Variables   Variables `json:"variables"`
}

type SendMessageResponse struct {
	Type         string             `json:"type"`
	Content      string             `json:"content"`
	Conversation ConversationStatus `json:"conversation"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
