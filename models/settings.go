package models

import "time"

// GlobalSettings holds deployment-wide defaults: the LLM endpoint and the
// fallback SMTP transport. Secrets (LLMAPIKey, SMTP.Password) are stored
// encrypted and decrypted only at the point of use.
type GlobalSettings struct {
	ID         int         `bson:"id" json:"id"`
	LLMBaseURL string      `bson:"llmBaseUrl" json:"llmBaseUrl"`
	LLMModel   string      `bson:"llmModel" json:"llmModel"`
	LLMAPIKey  string      `bson:"llmApiKey" json:"-"`
	SMTP       *SMTPConfig `bson:"smtp,omitempty" json:"smtp,omitempty"`
	UpdatedAt  time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// ResolveSMTP applies the layered configuration rule: the instance override
// wins when fully configured, otherwise the global default applies. Returns
// nil when neither level can send mail.
func ResolveSMTP(inst *Instance, global *GlobalSettings) *SMTPConfig {
	if inst != nil && inst.SMTP.Configured() {
		return inst.SMTP
	}
	if global != nil && global.SMTP.Configured() {
		return global.SMTP
	}
	return nil
}
