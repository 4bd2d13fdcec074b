package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Details is the schemaless payload attached to an activity log row. Each
// action tag has a conventional shape (e.g. update_status carries
// "old_status" and "new_status") but nothing enforces it; readers must treat
// every key as optional.
type Details map[string]interface{}

// Value implements driver.Valuer so Details persists as JSONB.
func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal details: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (d *Details) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}

	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported details type %T", src)
	}

	if len(b) == 0 {
		*d = nil
		return nil
	}

	return json.Unmarshal(b, d)
}
