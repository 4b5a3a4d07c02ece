package log

import (
	"sort"
	"time"
)

// Field names shared by every component.
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldQuery        = "query"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldUserAgent    = "user_agent"
	FieldReferer      = "referer"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldEventType    = "event_type"
	FieldEventVersion = "event_version"
	FieldAccount      = "account"
	FieldTarget       = "target"
	FieldAmountCents  = "amount_cents"
	FieldAsOf         = "as_of"
	FieldBackend      = "backend"
	FieldEventCount   = "event_count"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBudget    = "budget"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentExport    = "export"
)

const (
	OpAppend  = "append"
	OpPublish = "publish"
	OpReplay  = "replay"
	OpExport  = "export"
)

// LogFields collects attributes for one record.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError is a no-op for a nil error.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEvent adds the type and schema version of an event.
func (f LogFields) WithEvent(eventType string, version int) LogFields {
	f[FieldEventType] = eventType
	f[FieldEventVersion] = version
	return f
}

func (f LogFields) WithAccount(account string) LogFields {
	f[FieldAccount] = account
	return f
}

func (f LogFields) WithTarget(target string) LogFields {
	f[FieldTarget] = target
	return f
}

func (f LogFields) WithAmount(amountCents int64) LogFields {
	f[FieldAmountCents] = amountCents
	return f
}

// WithAsOf adds a reference date, given in YYYY-MM-DD form.
func (f LogFields) WithAsOf(date string) LogFields {
	f[FieldAsOf] = date
	return f
}

// WithHTTPRequest omits empty user agent and referer values.
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// WithDuration records d in milliseconds.
func (f LogFields) WithDuration(d time.Duration) LogFields {
	f[FieldDuration] = d.Milliseconds()
	return f
}

// ToSlice flattens the fields into slog key/value pairs, sorted by key.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
