package domain

import "slices"

// Capability is a bit set describing how an identity authenticated.
type Capability uint8

const (
	CapPassword Capability = 1 << iota
	CapSocial
)

// Identity is the authenticated principal passed to transport adapters.
// Attributes carries raw provider data for social logins and is nil otherwise.
type Identity struct {
	MemberID     string
	Roles        []string
	Provider     string
	Attributes   map[string]any
	Capabilities Capability
}

func (i Identity) Has(c Capability) bool { return i.Capabilities&c != 0 }

func (i Identity) HasRole(role string) bool { return slices.Contains(i.Roles, role) }
