package httptransport

import (
	"net/http"

	"passport-iam/pkg/platform/httputil"
	"passport-iam/pkg/requestcontext"
)

// HandleScoreAttestation returns the signed score attestation for a recipient.
//
// Input: { "recipient": "0x...", "chainIdHex": "0xa", "nonce": 3, "customScorerId": 335 }
// Output: { "passport": {...}, "signature": { "v": 27, "r": "0x..", "s": "0x.." }, "invalidCredentials": [] }
func (h *Handler) HandleScoreAttestation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ScoreAttestationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.attester.SignedScoreAttestation(ctx, req.Recipient, req.ChainIDHex, req.Nonce.value(), req.CustomScorerID)
	if err != nil {
		h.logger.WarnContext(ctx, "score attestation failed", "error", err, "request_id", requestID, "chain", req.ChainIDHex)
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandlePassportAttestation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PassportAttestationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.attester.PassportAttestation(ctx, req.Credentials, req.Recipient, req.ChainIDHex, req.Nonce.value(), req.CustomScorerID)
	if err != nil {
		h.logger.WarnContext(ctx, "passport attestation failed", "error", err, "request_id", requestID, "chain", req.ChainIDHex)
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleBadgeUpgrade signs the badge levels the submitted credentials unlock.
func (h *Handler) HandleBadgeUpgrade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BadgeUpgradeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.attester.ComputeBadgeUpgrade(ctx, req.Credentials, req.Nonce.value(), req.ChainIDHex)
	if err != nil {
		h.logger.WarnContext(ctx, "badge upgrade failed", "error", err, "request_id", requestID, "chain", req.ChainIDHex)
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
