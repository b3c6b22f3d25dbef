// Package email is the EMAIL channel: it renders outage notifications into
// localized HTML and plain-text email and sends them through an
// external.EmailProvider.
package email

import (
	"errors"

	"outagealert/internal/types"
)

// ErrMalformedMessage is returned for a non-test message without an outage.
var ErrMalformedMessage = errors.New("email: message has no outage")

// IsBlocklistError reports whether the provider refused the recipient.
func IsBlocklistError(err error) bool {
	return types.HasCode(err, types.ErrCodeRecipientRejected)
}
