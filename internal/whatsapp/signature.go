package whatsapp

import (
	"net/http"

	"github.com/twilio/twilio-go/client"
)

// SignatureHeader carries the Twilio request signature.
const SignatureHeader = "X-Twilio-Signature"

// SignatureValidator checks that webhook requests were signed by Twilio.
type SignatureValidator struct {
	validator client.RequestValidator
}

// NewSignatureValidator creates a validator for the account's auth token.
func NewSignatureValidator(authToken string) *SignatureValidator {
	return &SignatureValidator{validator: client.NewRequestValidator(authToken)}
}

// ValidateRequest reports whether r carries a valid signature for the
// public URL it was delivered to. r's form must already be parsed.
func (v *SignatureValidator) ValidateRequest(publicURL string, r *http.Request) bool {
	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		return false
	}
	params := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return v.validator.Validate(publicURL, params, signature)
}
