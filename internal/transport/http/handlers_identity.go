package httptransport

import (
	"net/http"
	"strings"

	"passport-iam/internal/identity/auth"
	"passport-iam/internal/identity/models"
	"passport-iam/pkg/platform/httputil"
	"passport-iam/pkg/requestcontext"
)

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// HandleChallenge issues the challenge credential a wallet signs before verify.
//
// Input: { "payload": { "address": "0x...", "type": "Github" } }
// Output: { "credential": { ... } }
func (h *Handler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[ChallengeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.issuer.IssueChallenge(ctx, req.Payload)
	if err != nil {
		h.logger.WarnContext(ctx, "challenge failed", "error", err, "request_id", requestID, "type", req.Payload.Type)
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleVerify authenticates the caller, optionally swaps in a vouching
// signer, and issues credentials. A request naming only payload.type gets a
// single object back; payload.types gets an array in the same order.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	address, err := h.issuanceAddress(r, req.Challenge, req.SignedChallenge, req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	payload := req.Payload
	payload.Address = address

	if len(payload.Types) == 0 {
		res, err := h.issuer.IssueSingle(ctx, address, payload)
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, res)
		return
	}

	res, err := h.issuer.IssueCredentials(ctx, payload.Types, address, payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "issuance failed", "error", err, "request_id", requestID)
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// issuanceAddress authenticates the caller and returns the address the
// credentials are issued to: the vouching signer when one is attached.
func (h *Handler) issuanceAddress(r *http.Request, challenge *models.VerifiableCredential, signedChallenge string, payload models.Payload) (string, error) {
	ctx := r.Context()
	authn, err := h.auth.Resolve(ctx, auth.Input{
		BearerToken:     bearerToken(r),
		Challenge:       challenge,
		SignedChallenge: signedChallenge,
		Payload:         payload,
	})
	if err != nil {
		return "", err
	}
	if payload.Signer == nil {
		return authn.Address, nil
	}
	return h.issuer.VerifyAdditionalSigner(ctx, *payload.Signer)
}

// HandleCheck runs the providers without issuing anything.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	results, err := h.checker.VerifyTypes(ctx, req.Payload.RequestedTypes(), req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]CheckResult, len(results))
	for i, res := range results {
		out[i] = CheckResult{Type: res.Type, Valid: res.Result.Valid, Code: res.Code, Error: res.Error}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleAutoVerification checks every EVM stamp for an address and returns
// the refreshed score.
func (h *Handler) HandleAutoVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AutoVerificationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	scorerID, err := req.scorerID()
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.auto.AutoVerify(ctx, req.Address, scorerID)
	if err != nil {
		h.logger.WarnContext(ctx, "auto verification failed", "error", err, "request_id", requestID)
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleEmbedVerify authenticates like verify, submits the passing
// credentials to the Scorer and reports the failed providers alongside them.
// Individual provider failures never change the 200 status.
//
// Output: { "score": { ... }, "credentials": [ ... ], "credentialErrors": [ { "provider", "error", "code" } ] }
func (h *Handler) HandleEmbedVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EmbedVerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	scorerID, err := parseScorerID(req.ScorerID)
	if err != nil {
		writeError(w, err)
		return
	}
	address, err := h.issuanceAddress(r, req.Challenge, req.SignedChallenge, req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auto.EmbedVerify(ctx, address, req.Payload, scorerID)
	if err != nil {
		h.logger.WarnContext(ctx, "embed verification failed", "error", err, "request_id", requestID)
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
