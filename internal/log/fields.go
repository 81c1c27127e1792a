package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldCollection = "collection"
	FieldKey        = "key"
	FieldID         = "id"
	FieldCount      = "count"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldMessageID  = "message_id"
	FieldSheet      = "sheet"
	FieldBackend    = "backend"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentRecords  = "records"
	ComponentTasks    = "tasks"
	ComponentSpending = "spending"
	ComponentTimer    = "timer"
	ComponentLinks    = "links"
	ComponentAuth     = "auth"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
	ComponentBackend  = "backend"
	ComponentCLI      = "cli"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSeed     = "seed"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpStart    = "start"
	OpStop     = "stop"
	OpImport   = "import"
	OpExport   = "export"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpSync     = "sync"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds the collection and id of the record being touched.
func (f LogFields) WithRecord(collection string, id int64) LogFields {
	f[FieldCollection] = collection
	f[FieldID] = id
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// ToSlice converts LogFields to slice for slog
func (f LogFields) ToSlice() []any {
	result := make([]any, 0, len(f)*2)
	for k, v := range f {
		result = append(result, k, v)
	}
	return result
}
