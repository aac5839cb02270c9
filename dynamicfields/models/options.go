package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Value serialises the option list into its JSONB column.
func (o Options) Value() (driver.Value, error) {
	if o == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Scan reads the option list back out of its JSONB column.
func (o *Options) Scan(src interface{}) error {
	if src == nil {
		*o = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Options", src)
	}
	return json.Unmarshal(data, o)
}
