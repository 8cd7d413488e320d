package ledger

const (
	operationCreate      = "create"
	operationUpdateDays  = "update_days"
	operationUpdate      = "update"
	operationExtend      = "extend"
	operationDelete      = "delete"
	operationValidate    = "validate"
	operationDecode      = "decode"
	operationCarStatus   = "car_status"
	operationNotify      = "notify"
	operationStatusOK    = "ok"
	operationStatusError = "error"

	subjectReservation = "reservation"
	subjectDays        = "days"
	subjectCar         = "car"
	subjectWindow      = "window"

	errorCodeInvalid   = "invalid"
	errorCodeMissing   = "missing"
	errorCodeOverlap   = "overlap"
	errorCodeLoad      = "load"
	errorCodeSave      = "save"
	errorCodeCorrupted = "corrupted"

	// LegacyMigrationNote marks day entries rebuilt from a pre-ledger record.
	LegacyMigrationNote = "[migrated from legacy record]"
	// ExtensionNote is the default note for days appended by an extension.
	ExtensionNote = "[extension]"
	// MaxLedgerDays bounds the number of days one reservation ledger holds.
	MaxLedgerDays = 3650
)
