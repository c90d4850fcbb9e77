package tariff

import "fmt"

// DataSourceError reports that a rule source could not be loaded: unreachable
// storage or malformed schema. A load that fails never exposes a partial
// table.
type DataSourceError struct {
	Source string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("tariff rule source %s: %v", e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}
