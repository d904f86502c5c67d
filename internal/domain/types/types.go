package types

type ServiceMode string

// Dispatch Service - serves the driver directory, trip listing and assignment over HTTP
// Reconciler Service - runs the driver lifecycle sweeps on a schedule
// Sweep - runs both sweeps once and exits
const (
	DispatchService   ServiceMode = "dispatch-service"
	ReconcilerService ServiceMode = "reconciler-service"
	SweepOnce         ServiceMode = "sweep"
)

type TripStatus string

func (s TripStatus) String() string {
	return string(s)
}

const (
	TripRequested TripStatus = "requested"
	TripAssigned  TripStatus = "assigned"
	TripAccepted  TripStatus = "accepted"
	TripOnboard   TripStatus = "onboard"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// DriverState is the availability of a driver. The empty value means the state is not tracked.
type DriverState string

func (s DriverState) String() string {
	return string(s)
}

const (
	DriverAvailable DriverState = "available"
	DriverBusy      DriverState = "busy"
	DriverOffline   DriverState = "offline"
)

type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	PassengerRole UserRole = "passenger"
	DriverRole    UserRole = "driver"
	AdminRole     UserRole = "admin"
)

type SweepName string

func (s SweepName) String() string {
	return string(s)
}

const (
	SweepStuckBusy SweepName = "stuck_busy"
	SweepIdle      SweepName = "idle"
)
