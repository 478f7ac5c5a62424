package logging

// Standardized field names for structured logging.
const (
	FieldSender     = "sender"
	FieldKind       = "kind"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldReference  = "mpesa_ref"
	FieldOutcome    = "outcome"
	FieldStage      = "stage"
	FieldCount      = "count"
	FieldEnabled    = "enabled"
	FieldStatus     = "status"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
	FieldURL        = "url"
	FieldDuration   = "duration_ms"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldAddress    = "address"
)
