package log

// Field names shared across packages
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldReferer     = "referer"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldUserID      = "user_id"
	FieldRecordID    = "record_id"
	FieldBudgetID    = "budget_id"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldAIProvider  = "ai_provider"
)

const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentFinance  = "finance"
	ComponentAuth     = "auth"
	ComponentStorage  = "storage"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentTelegram = "telegram"
)

const (
	OpCreate = "create"
	OpUpdate = "update"
)

const (
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields accumulates attributes for one record.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithClientIP(ip string) LogFields {
	if ip != "" {
		f[FieldClientIP] = ip
	}
	return f
}

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

// WithRecord adds transaction fields. Descriptions are not included.
func (f LogFields) WithRecord(userID, recordID string, amountCents int64, category string) LogFields {
	f[FieldUserID] = userID
	f[FieldRecordID] = recordID
	f[FieldAmountCents] = amountCents
	f[FieldCategory] = category
	return f
}

func (f LogFields) WithBudget(userID, budgetID, category string, month, year int) LogFields {
	f[FieldUserID] = userID
	f[FieldBudgetID] = budgetID
	f[FieldCategory] = category
	f[FieldMonth] = month
	f[FieldYear] = year
	return f
}

// WithHTTPRequest adds the request details not already carried by the
// request-scoped logger. Empty values are skipped.
func (f LogFields) WithHTTPRequest(query, userAgent, referer string) LogFields {
	for k, v := range map[string]string{FieldQuery: query, FieldUserAgent: userAgent, FieldReferer: referer} {
		if v != "" {
			f[k] = v
		}
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice flattens the fields into slog key/value pairs.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
