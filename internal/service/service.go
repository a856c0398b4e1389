package service

import (
	"github.com/vehicletrack/backend/internal/domain"
)

// LocationRepository is re-exported from domain for convenience
type LocationRepository = domain.LocationRepository
