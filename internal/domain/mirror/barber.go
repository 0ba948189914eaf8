// Package mirror holds local read-optimized replicas of records owned by the
// barber and catalog services. Rows are only ever written by idempotent
// upserts driven by catalog events; the reservation engine never mutates them.
package mirror

// BarberService is the per-pair activation flag of a service offered by a
// barber.
type BarberService struct {
	ServiceID string
	Active    bool
}

// Barber is the mirrored record of a barber.
type Barber struct {
	BarberID  string
	Name      string
	Available bool
	Active    bool
	Services  []BarberService
}

// Offers reports whether the barber currently offers the service, i.e. the
// pair exists and is active.
func (b *Barber) Offers(serviceID string) bool {
	for _, s := range b.Services {
		if s.ServiceID == serviceID {
			return s.Active
		}
	}
	return false
}
