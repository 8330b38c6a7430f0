package carriers

import (
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/ports"
)

// Registry is a fixed set of carrier clients keyed by catalog code. Codes are
// returned in registration order, which is the rate-shopping order.
type Registry struct {
	clients map[string]ports.CarrierClient
	order   []string
}

var _ ports.CarrierRegistry = (*Registry)(nil)

// NewRegistry registers clients; a later client with the same code replaces
// the earlier one but keeps its position.
func NewRegistry(clients ...ports.CarrierClient) *Registry {
	r := &Registry{clients: make(map[string]ports.CarrierClient, len(clients))}
	for _, c := range clients {
		code := catalog.NormalizeCarrierCode(c.Code())
		if _, exists := r.clients[code]; !exists {
			r.order = append(r.order, code)
		}
		r.clients[code] = c
	}
	return r
}

func (r *Registry) Client(code string) (ports.CarrierClient, bool) {
	c, ok := r.clients[catalog.NormalizeCarrierCode(code)]
	return c, ok
}

func (r *Registry) Codes() []string {
	return append([]string(nil), r.order...)
}
