package domain

// Reservation is a booking as seen by the availability calculator.
// ReservationDate is the raw value delivered by the backend (string,
// spreadsheet serial number or time.Time); it is normalized by the caller.
type Reservation struct {
	ID              string
	ReservationDate any
}
