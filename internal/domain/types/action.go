package types

const (
	ActionAssignDriver     = "assign_driver"
	ActionListAssignable   = "list_assignable_drivers"
	ActionCreateTrip       = "create_trip"
	ActionListRequested    = "list_requested_trips"
	ActionSweepStuckBusy   = "sweep_stuck_busy"
	ActionSweepIdle        = "sweep_idle"
	ActionEventPublished   = "event_published"
	ActionEventPublishFail = "event_publish_failed"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
)
