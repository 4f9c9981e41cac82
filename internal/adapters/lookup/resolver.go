package lookup

import "github.com/lcalzada-xor/blemap/internal/core/ports"

// Resolver bundles the manufacturer and service tables behind ports.Lookup.
type Resolver struct {
	manufacturers *ManufacturerTable
}

// NewResolver returns a Resolver over the given manufacturer table.
func NewResolver(manufacturers *ManufacturerTable) *Resolver {
	return &Resolver{manufacturers: manufacturers}
}

func (r *Resolver) ManufacturerName(id *uint16) string {
	return r.manufacturers.Name(id)
}

func (r *Resolver) ServiceNames(uuids []string) string {
	return ServiceNames(uuids)
}

// Ensure interface compliance
var _ ports.Lookup = (*Resolver)(nil)
