package scorer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"passport-iam/internal/identity/models"
)

// StampScore is one provider entry of a score response.
type StampScore struct {
	Provider       string `json:"provider"`
	Score          string `json:"score"`
	Dedup          bool   `json:"dedup"`
	ExpirationDate string `json:"expiration_date"`
}

// Stamps keeps the provider order of the JSON object it was decoded from.
type Stamps []StampScore

type stampBody struct {
	Score          json.Number `json:"score"`
	Dedup          bool        `json:"dedup"`
	ExpirationDate string      `json:"expiration_date"`
}

// UnmarshalJSON walks the object token by token; decoding into a map would
// lose the source order the attestation encoding depends on.
func (s *Stamps) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("stamps: expected object, got %v", tok)
	}
	var out Stamps
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("stamps: expected key, got %v", keyTok)
		}
		var body stampBody
		if err := dec.Decode(&body); err != nil {
			return fmt.Errorf("stamps[%s]: %w", key, err)
		}
		out = append(out, StampScore{
			Provider:       key,
			Score:          body.Score.String(),
			Dedup:          body.Dedup,
			ExpirationDate: body.ExpirationDate,
		})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// PassportScore is the v2 score summary. Numeric fields are decimal strings.
type PassportScore struct {
	Address             string `json:"address"`
	Score               string `json:"score"`
	PassingScore        bool   `json:"passing_score"`
	LastScoreTimestamp  string `json:"last_score_timestamp"`
	ExpirationTimestamp string `json:"expiration_timestamp"`
	Threshold           string `json:"threshold"`
	Error               string `json:"error"`
	Stamps              Stamps `json:"stamps"`
}

type BanSubject struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
	Hash     string `json:"hash"`
}

type BanQuery struct {
	CredentialSubject BanSubject `json:"credentialSubject"`
}

// Ban is the Scorer's verdict for one nullifier.
type Ban struct {
	Hash     string `json:"hash"`
	IsBanned bool   `json:"is_banned"`
	EndTime  string `json:"end_time,omitempty"`
	BanType  string `json:"ban_type,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type SubmitStampsRequest struct {
	Stamps   []models.VerifiableCredential `json:"stamps"`
	ScorerID int64                         `json:"scorer_id"`
}
