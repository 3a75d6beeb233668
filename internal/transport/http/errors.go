package httptransport

import (
	"errors"
	"net/http"

	"passport-iam/internal/attestation"
	"passport-iam/internal/identity/models"
	"passport-iam/pkg/platform/httputil"
)

// ProviderErrorResponse carries a single-type verification failure with the
// provider's own status code.
type ProviderErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type InvalidCredentialsResponse struct {
	Error              string                        `json:"error"`
	InvalidCredentials []models.VerifiableCredential `json:"invalidCredentials"`
}

func writeError(w http.ResponseWriter, err error) {
	var respErr *models.ResponseError
	if errors.As(err, &respErr) {
		httputil.WriteJSON(w, respErr.Code, ProviderErrorResponse{Error: respErr.Message, Code: respErr.Code})
		return
	}
	var invalid *attestation.InvalidCredentialsError
	if errors.As(err, &invalid) {
		httputil.WriteJSON(w, http.StatusBadRequest, InvalidCredentialsResponse{
			Error:              invalid.Error(),
			InvalidCredentials: invalid.Credentials,
		})
		return
	}
	httputil.WriteError(w, err)
}
