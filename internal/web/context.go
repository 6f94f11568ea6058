package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/ledgerimport/internal/hash"
	"github.com/JonMunkholm/ledgerimport/internal/ledger"
)

// collection resolves the {loc} path parameter.
func (s *Server) collection(r *http.Request) (ledger.Ledger, error) {
	raw := chi.URLParam(r, "loc")
	loc, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid collection id %q", errBadRequest, raw)
	}
	return s.ledgers.Collection(loc), nil
}

// hashParam parses a hex hash path parameter.
func hashParam(r *http.Request, name string) (hash.Hash, error) {
	raw := chi.URLParam(r, name)
	h, err := hash.FromHex(raw)
	if err != nil {
		return hash.Hash{}, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
	}
	return h, nil
}
