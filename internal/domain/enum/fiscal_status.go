package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// FiscalStatus represents the lifecycle of a fiscal document.
// Authorized is terminal; Rejected and Error can re-enter transmission.
type FiscalStatus int

const (
	FiscalStatusPending    FiscalStatus = 0
	FiscalStatusAuthorized FiscalStatus = 1
	FiscalStatusRejected   FiscalStatus = 2
	FiscalStatusError      FiscalStatus = 3
)

func (s FiscalStatus) String() string {
	switch s {
	case FiscalStatusPending:
		return "Pending"
	case FiscalStatusAuthorized:
		return "Authorized"
	case FiscalStatusRejected:
		return "Rejected"
	case FiscalStatusError:
		return "Error"
	}
	return "Unknown"
}

// Retryable reports whether a document in this status may be transmitted again
func (s FiscalStatus) Retryable() bool {
	return s == FiscalStatusPending || s == FiscalStatusRejected || s == FiscalStatusError
}

func (s FiscalStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *FiscalStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = FiscalStatus(i)
		return nil
	}
	switch str {
	case "Pending":
		*s = FiscalStatusPending
	case "Authorized":
		*s = FiscalStatusAuthorized
	case "Rejected":
		*s = FiscalStatusRejected
	case "Error":
		*s = FiscalStatusError
	}
	return nil
}

func (s FiscalStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *FiscalStatus) Scan(value interface{}) error {
	if value == nil {
		*s = FiscalStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = FiscalStatus(v)
	case int:
		*s = FiscalStatus(v)
	}
	return nil
}
