package mirror

// Service is the mirrored record of a bookable service.
type Service struct {
	ServiceID       string
	Price           float64
	DurationMinutes int
	Active          bool
}
