package rbac

import "encoding/base64"

// Rule is a named, opaque authorization predicate. The store persists and
// retrieves rules by name; their internal logic lives entirely in the
// consuming RBAC manager, so the payload is treated as a byte blob.
type Rule struct {
	Name    string
	Payload []byte
}

// NewRule creates a rule with the given serialized payload
func NewRule(name string, payload []byte) *Rule {
	return &Rule{Name: name, Payload: payload}
}

// Clone returns a copy of the rule with its own payload buffer
func (r *Rule) Clone() *Rule {
	c := &Rule{Name: r.Name}
	if r.Payload != nil {
		c.Payload = make([]byte, len(r.Payload))
		copy(c.Payload, r.Payload)
	}
	return c
}

// RuleCodec converts rule payloads to and from the string form stored in the
// rules file. Implementations must round-trip arbitrary bytes.
type RuleCodec interface {
	Encode(payload []byte) (string, error)
	Decode(data string) ([]byte, error)
}

// Base64RuleCodec is the default RuleCodec. It keeps binary payloads safe
// inside a text-based file format.
type Base64RuleCodec struct{}

// Encode implements RuleCodec.Encode
func (Base64RuleCodec) Encode(payload []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(payload), nil
}

// Decode implements RuleCodec.Decode
func (Base64RuleCodec) Decode(data string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(data)
}
