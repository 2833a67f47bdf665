package static

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gitcordhq/gitcord/pkg/auth"
)

type validatorConfig struct {
	// Token is the exact API key value expected by this validator.
	Token string `json:"token"`

	// Subject is returned as claims.Subject.
	Subject string `json:"subject,omitempty"`

	// Scopes is returned as claims.Scopes.
	Scopes []string `json:"scopes,omitempty"`
}

type validator struct {
	cfg validatorConfig
}

// NewValidatorFromJSON builds a shared-key validator. The config may be a
// JSON object {"token":"...","subject":"..."} or a bare JSON string holding
// the token.
func NewValidatorFromJSON(raw json.RawMessage) (auth.Validator, error) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return nil, errors.New("static auth: missing config")
	}

	var cfg validatorConfig
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &cfg.Token); err != nil {
			return nil, errors.New("static auth: invalid config: " + err.Error())
		}
	} else {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, errors.New("static auth: invalid config: " + err.Error())
		}
	}

	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Token == "" {
		return nil, errors.New("static auth: token is required")
	}
	cfg.Subject = strings.TrimSpace(cfg.Subject)
	if cfg.Subject == "" {
		cfg.Subject = "static"
	}

	return &validator{cfg: cfg}, nil
}

func (v *validator) Validate(token string) (*auth.Claims, error) {
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(v.cfg.Token)) != 1 {
		return nil, errors.New("invalid token")
	}
	return &auth.Claims{
		Subject: v.cfg.Subject,
		Scopes:  v.cfg.Scopes,
	}, nil
}

func init() {
	auth.RegisterProvider("static", NewValidatorFromJSON)
}
