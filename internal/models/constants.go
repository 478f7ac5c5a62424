package models

// Transaction directions as they appear on the wire
const (
	Inbound  Direction = "IN"
	Outbound Direction = "OUT"
)

// Categories
const (
	CategoryFuel        = "Fuel"
	CategoryParking     = "Parking"
	CategoryMaintenance = "Maintenance"
	CategoryOther       = "Other"
)

// Wire field names used when a record is handed to a consumer
const (
	FieldKind         = "kind"
	FieldAmount       = "amount"
	FieldCategory     = "category"
	FieldCounterparty = "counterparty"
	FieldReference    = "mpesa_ref"
	FieldDescription  = "description"
	FieldOccurredAt   = "occurred_at"
)

// File permissions
const (
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
