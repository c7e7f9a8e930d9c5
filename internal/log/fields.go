package log

// Field names shared by every component.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldError     = "error"
	FieldOperation = "operation"
)

// Components
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "export-worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentAdmin   = "admin"
	ComponentBackend = "backend"
)
