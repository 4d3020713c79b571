package motapi

import (
	"context"
	"time"

	"github.com/fredsterzcode/motalert/app/models"
)

// VehicleInfo is the lookup result for a registration plate.
type VehicleInfo struct {
	Registration string
	Make         string
	Model        string
	Colour       string
	FuelType     string
	MOTDue       time.Time
	LastMOT      *time.Time
}

// Client looks up vehicle and MOT data for a registration.
// TODO: implement a DVSA MOT History API client once API access is granted;
// until then the stub below is the only implementation.
type Client interface {
	Lookup(ctx context.Context, registration string) (*VehicleInfo, error)
}

// StubClient returns canned data so the rest of the system can be built and
// demonstrated without DVSA access.
type StubClient struct {
	// DueIn shifts the returned MOT due date relative to now; defaults to a
	// year when zero.
	DueIn time.Duration
}

// NewStubClient creates a stub with the default one-year due date.
func NewStubClient() *StubClient {
	return &StubClient{}
}

func (c *StubClient) Lookup(_ context.Context, registration string) (*VehicleInfo, error) {
	dueIn := c.DueIn
	if dueIn == 0 {
		dueIn = 365 * 24 * time.Hour
	}
	lastMOT := time.Now().AddDate(-1, 0, 0)
	return &VehicleInfo{
		Registration: models.NormalizeRegistration(registration),
		Make:         "Ford",
		Model:        "Focus",
		Colour:       "Blue",
		FuelType:     "Petrol",
		MOTDue:       time.Now().Add(dueIn),
		LastMOT:      &lastMOT,
	}, nil
}
