// Package models holds the request, verification and credential types shared
// by the identity pipeline.
package models

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DIDPrefix is the did:pkh namespace every credential subject lives under.
const DIDPrefix = "did:pkh:eip155:1:"

// SubjectDID builds the did:pkh subject id for an address, lower-cased.
func SubjectDID(address string) string {
	return DIDPrefix + strings.ToLower(address)
}

type SignatureType string

const (
	SignatureEd25519 SignatureType = "Ed25519"
	SignatureEIP712  SignatureType = "EIP712"
)

// Payload is the client request body for challenge and verify calls.
type Payload struct {
	Address       string            `json:"address"`
	Type          string            `json:"type"`
	Types         []string          `json:"types,omitempty"`
	Version       string            `json:"version,omitempty"`
	Proofs        map[string]string `json:"proofs,omitempty"`
	SignatureType SignatureType     `json:"signatureType,omitempty"`
	Signer        *SignerPayload    `json:"signer,omitempty"`
}

// Clone copies the payload including its proofs map so that a provider can
// not leak changes into sibling verifications.
func (p Payload) Clone() Payload {
	out := p
	out.Proofs = make(map[string]string, len(p.Proofs)+2)
	for k, v := range p.Proofs {
		out.Proofs[k] = v
	}
	if p.Types != nil {
		out.Types = append([]string(nil), p.Types...)
	}
	return out
}

// RequestedTypes returns types, or the single type when types is empty.
func (p Payload) RequestedTypes() []string {
	if len(p.Types) > 0 {
		return p.Types
	}
	if p.Type == "" {
		return nil
	}
	return []string{p.Type}
}

// SignerPayload carries an additional signer vouching for the payload address.
type SignerPayload struct {
	Address   string                `json:"address"`
	Signature string                `json:"signature"`
	Challenge *VerifiableCredential `json:"challenge"`
}

// ProviderContext is scratch space shared by the providers of one platform
// within one request.
type ProviderContext map[string]any

// NullifierFunc derives an additional nullifier for a record outside this
// service, for example from a threshold-encryption network.
type NullifierFunc func(ctx context.Context, record map[string]string) (string, error)

// VerifiedPayload is what every provider returns.
type VerifiedPayload struct {
	Valid            bool              `json:"valid"`
	Record           map[string]string `json:"record,omitempty"`
	Errors           []string          `json:"errors,omitempty"`
	ExpiresInSeconds int64             `json:"expiresInSeconds,omitempty"`
	Nullifier        NullifierFunc     `json:"-"`
}

// VerifyTypeResult is one orchestrator output slot.
type VerifyTypeResult struct {
	Type   string          `json:"type"`
	Result VerifiedPayload `json:"verifyResult"`
	Code   int             `json:"code,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type CredentialSubject struct {
	Context    map[string]string `json:"@context,omitempty"`
	ID         string            `json:"id"`
	Provider   string            `json:"provider"`
	Hash       string            `json:"hash,omitempty"`
	Nullifiers []string          `json:"nullifiers,omitempty"`
	Challenge  string            `json:"challenge,omitempty"`
	Address    string            `json:"address,omitempty"`
}

type Proof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	ProofPurpose       string    `json:"proofPurpose"`
	VerificationMethod string    `json:"verificationMethod"`
	ProofValue         string    `json:"proofValue"`
}

type VerifiableCredential struct {
	Context           []string          `json:"@context"`
	Type              []string          `json:"type"`
	ID                string            `json:"id,omitempty"`
	Issuer            string            `json:"issuer"`
	IssuanceDate      time.Time         `json:"issuanceDate"`
	ExpirationDate    time.Time         `json:"expirationDate"`
	CredentialSubject CredentialSubject `json:"credentialSubject"`
	Proof             *Proof            `json:"proof,omitempty"`
}

// Unsigned returns a shallow copy without the proof.
func (vc VerifiableCredential) Unsigned() VerifiableCredential {
	vc.Proof = nil
	return vc
}

// CredentialResponse is either {credential, record} or {error, code}.
type CredentialResponse struct {
	Credential *VerifiableCredential `json:"credential,omitempty"`
	Record     map[string]string     `json:"record,omitempty"`
	Error      string                `json:"error,omitempty"`
	Code       int                   `json:"code,omitempty"`
}

func (r CredentialResponse) OK() bool { return r.Credential != nil && r.Error == "" }

// ResponseError is a failed single-type response. Transports write it with
// Code as the status and {error, code} as the body.
type ResponseError struct {
	Code    int
	Message string
}

func (e *ResponseError) Error() string { return e.Message }

// DefaultCredentialError fills a failed response that carries no message.
const DefaultCredentialError = "Verification failed"

// CredentialError names a requested provider that did not yield a credential.
type CredentialError struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
	Code     int    `json:"code"`
}

// CredentialSet is the mixed body of the embed and auto-verification flows.
// Both slices encode as arrays, never null.
type CredentialSet struct {
	Credentials      []VerifiableCredential `json:"credentials"`
	CredentialErrors []CredentialError      `json:"credentialErrors"`
}

// SplitResponses separates issued credentials from failures. responses[i]
// answers types[i], so a failure is reported under the type requested at the
// same index.
func SplitResponses(types []string, responses []CredentialResponse) CredentialSet {
	set := CredentialSet{
		Credentials:      []VerifiableCredential{},
		CredentialErrors: []CredentialError{},
	}
	for i, r := range responses {
		if r.OK() {
			set.Credentials = append(set.Credentials, *r.Credential)
			continue
		}
		ce := CredentialError{Error: r.Error, Code: r.Code}
		if i < len(types) {
			ce.Provider = types[i]
		}
		if ce.Error == "" {
			ce.Error = DefaultCredentialError
		}
		if ce.Code == 0 {
			ce.Code = http.StatusInternalServerError
		}
		set.CredentialErrors = append(set.CredentialErrors, ce)
	}
	return set
}
