package session

import "github.com/raveai/server/internal/domain"

type AddMashupParams struct {
	SessionId string
	Mashup    domain.Mashup
}

type GetMashupParams struct {
	SessionId string
	MashupId  string
}

// UpdateFunc computes the next state from the stored one. It may run more
// than once when concurrent writers conflict, so it must not have side effects.
type UpdateFunc func(domain.State) (domain.State, error)
