package hasura

import (
	"fmt"
	"net/http"
)

// ConfigError reports an unusable endpoint URL
type ConfigError struct {
	Endpoint string
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid endpoint %q: %v", e.Endpoint, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransportError reports a network level failure (connection refused, timeout, DNS)
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError reports a response whose status is not 200
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed (%d %s): %s", e.Status, http.StatusText(e.Status), e.Body)
}

// DecodeError reports a body that is not valid JSON or does not have the expected shape
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// QueryError reports a run_sql call the database rejected
type QueryError struct {
	ResultType string
	Body       string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: result_type %q: %s", e.ResultType, e.Body)
}

// MissingColumnMappingError reports a foreign key without any column mapping entries
type MissingColumnMappingError struct {
	Schema     string
	Table      string
	Constraint string
}

func (e *MissingColumnMappingError) Error() string {
	return fmt.Sprintf("foreign key %s on %s.%s: expected to find column mapping", e.Constraint, e.Schema, e.Table)
}
