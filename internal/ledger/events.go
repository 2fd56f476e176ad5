package ledger

import "encoding/json"

// Notification names. Each accepted mutation sets exactly one of these as the
// transaction's chaincode event.
const (
	EventUserRegistered       = "UserRegistered"
	EventUserDeactivated      = "UserDeactivated"
	EventBatchCreated         = "BatchCreated"
	EventBatchStatusUpdated   = "BatchStatusUpdated"
	EventCertificateRequested = "CertificateRequested"
	EventCertificateApproved  = "CertificateApproved"
	EventCertificateRejected  = "CertificateRejected"
)

// Event is a committed notification as delivered to off-chain subscribers.
type Event struct {
	TxID    string          `json:"txId"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

type UserRegistered struct {
	UserAddress string `json:"userAddress"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
}

type UserDeactivated struct {
	UserAddress string `json:"userAddress"`
}

// BatchCreated and BatchStatusUpdated carry the audit record they appended,
// since a Fabric transaction can only set one event.
type BatchCreated struct {
	BatchID    uint64            `json:"batchId"`
	Farmer     string            `json:"farmer"`
	AnimalType string            `json:"animalType"`
	Quantity   int64             `json:"quantity"`
	Record     SupplyChainRecord `json:"record"`
}

type BatchStatusUpdated struct {
	BatchID   uint64            `json:"batchId"`
	NewStatus BatchStatus       `json:"newStatus"`
	UpdatedBy string            `json:"updatedBy"`
	Record    SupplyChainRecord `json:"record"`
}

type CertificateRequested struct {
	CertID         uint64 `json:"certId"`
	BatchID        uint64 `json:"batchId"`
	Slaughterhouse string `json:"slaughterhouse"`
}

type CertificateApproved struct {
	CertID    uint64 `json:"certId"`
	BatchID   uint64 `json:"batchId"`
	Certifier string `json:"certifier"`
	Comments  string `json:"comments"`
}

type CertificateRejected struct {
	CertID    uint64 `json:"certId"`
	BatchID   uint64 `json:"batchId"`
	Certifier string `json:"certifier"`
	Reason    string `json:"reason"`
}
