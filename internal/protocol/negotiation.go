package protocol

import (
	"net/http"
	"strings"
	"time"
)

// Defaults shared by the probes.
const (
	DefaultName        = "llm"
	DefaultTimeout     = 5 * time.Second
	DefaultMaxBodySize = 1 << 20
)

// Header fields of the negotiation protocol, without the X-<Name>- prefix.
const (
	FieldVersion   = "Version"
	FieldType      = "Type"
	FieldLang      = "Lang"
	FieldEntity    = "Entity"
	FieldTokens    = "Tokens"
	FieldUpdated   = "Updated"
	FieldCanonical = "Canonical"
)

// Negotiation derives the media type, header names and well-known path of
// a protocol from its name.
type Negotiation struct {
	name string
}

// NewNegotiation returns the Negotiation for name. An empty name selects
// DefaultName.
func NewNegotiation(name string) Negotiation {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultName
	}
	return Negotiation{name: name}
}

// Name returns the protocol name.
func (n Negotiation) Name() string {
	return n.name
}

// MediaType returns the media type sent in the Accept header.
func (n Negotiation) MediaType() string {
	return "text/" + n.name + "+markdown"
}

// Header returns the canonical response header name for field.
func (n Negotiation) Header(field string) string {
	return http.CanonicalHeaderKey("X-" + n.name + "-" + field)
}

// WellKnownPath returns the path of the well-known JSON document.
func (n Negotiation) WellKnownPath() string {
	return "/.well-known/" + n.name + ".json"
}
