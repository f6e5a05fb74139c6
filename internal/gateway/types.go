package gateway

import "github.com/smswire/smswire/internal/domain"

// The gateway wraps every response payload in a data envelope.

type userEnvelope struct {
	Data domain.User `json:"data"`
}

type phonesEnvelope struct {
	Data []domain.Phone `json:"data"`
}

type threadsEnvelope struct {
	Data []domain.MessageThread `json:"data"`
}

type messagesEnvelope struct {
	Data []domain.Message `json:"data"`
}

type heartbeatsEnvelope struct {
	Data []domain.Heartbeat `json:"data"`
}

// updateUserRequest is the PUT /v1/users/me body.
type updateUserRequest struct {
	ActivePhoneID string `json:"active_phone_id"`
}
