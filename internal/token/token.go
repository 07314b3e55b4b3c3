package token

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind scopes a token to the flow that may redeem it. A token issued for one
// kind is invisible to every other kind.
type Kind int

const (
	KindVerify Kind = iota // email verification
	KindReset              // password reset
	KindInvite             // company recruiter invitation
)

// String returns the key prefix for the kind. An unknown kind is a
// programming error, not a runtime condition, hence the panic.
func (k Kind) String() string {
	switch k {
	case KindVerify:
		return "VERIFY"
	case KindReset:
		return "RESET"
	case KindInvite:
		return "INVITE"
	default:
		panic(fmt.Sprintf("token: unknown kind %d", int(k)))
	}
}

// Payload is the opaque value a token redeems to. Email is required for all
// kinds; CompanyID only for invite tokens.
type Payload struct {
	Email     string `json:"email"`
	CompanyID string `json:"companyId,omitempty"`
}

var errMalformedPayload = errors.New("token: malformed payload")

func decodePayload(kind Kind, data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Email == "" {
		return nil, errMalformedPayload
	}
	if kind == KindInvite && p.CompanyID == "" {
		return nil, errMalformedPayload
	}
	return &p, nil
}
