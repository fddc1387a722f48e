// internal/adapter/logger/types.go
package logger

// Keys of a log entry
const (
	KeyTimestamp = "timestamp"
	KeyLevel     = "level"
	KeyService   = "service"
	KeyHostname  = "hostname"
	KeyRequestID = "request_id"
	KeyAction    = "action"
	KeyMessage   = "message"
	KeyDetails   = "details"
)
