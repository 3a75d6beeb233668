package audit

import "time"

// Event is emitted from the issuance and attestation paths. Addresses are
// carried hashed; the raw address never leaves the process through audit.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	Action      Action    `json:"action"`
	AddressHash string    `json:"address_hash"`
	Provider    string    `json:"provider,omitempty"`
	Chain       string    `json:"chain,omitempty"`
	Code        int       `json:"code,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

type Action string

const (
	ActionCredentialIssued  Action = "credential.issued"
	ActionCredentialFailed  Action = "credential.failed"
	ActionAttestationScore  Action = "attestation.score"
	ActionAttestationBadge  Action = "attestation.badge"
	ActionAttestationStamps Action = "attestation.passport"
	ActionAutoVerification  Action = "autoverify.submitted"
	ActionEmbedVerification Action = "embed.submitted"
)
