package server

import "github.com/MKhiriev/go-clip-keeper/internal/service"

// StatusSource reports the current state of the sync engine.
type StatusSource interface {
	Status() service.Status
}
