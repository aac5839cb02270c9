package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var fieldTypes = map[string]bool{
	TypeText:     true,
	TypeLongText: true,
	TypeNumber:   true,
	TypeDatetime: true,
	TypeSelect:   true,
}

// Validate checks type and option consistency of a field definition.
func (f *DynamicField) Validate() error {
	if f.Title == "" {
		return errors.New("title is required")
	}
	if !fieldTypes[f.FieldType] {
		return fmt.Errorf("unknown field type %q", f.FieldType)
	}
	if _, ok := EntityTypes[f.EntityType]; !ok {
		return fmt.Errorf("unknown entity type %q", f.EntityType)
	}

	if f.FieldType == TypeSelect {
		if len(f.Options) == 0 {
			return errors.New("select fields need at least one option")
		}
		seen := make(map[int64]bool, len(f.Options))
		for _, opt := range f.Options {
			if opt.Label == "" {
				return errors.New("select options need a label")
			}
			if opt.ID != 0 && seen[opt.ID] {
				return fmt.Errorf("duplicate option id %d", opt.ID)
			}
			seen[opt.ID] = true
		}
	} else if len(f.Options) > 0 {
		return fmt.Errorf("%s fields cannot carry options", f.FieldType)
	}

	return f.validateSchemaConfig()
}

func (f *DynamicField) validateSchemaConfig() error {
	if len(f.SchemaConfig) == 0 {
		return nil
	}

	var cfg SchemaConfig
	if err := json.Unmarshal(f.SchemaConfig, &cfg); err != nil {
		return fmt.Errorf("malformed schema_config: %v", err)
	}

	if cfg.MaxLength != nil {
		if f.FieldType != TypeText && f.FieldType != TypeLongText {
			return errors.New("max_length only applies to text fields")
		}
		if *cfg.MaxLength <= 0 {
			return errors.New("max_length must be positive")
		}
	}
	if cfg.Min != nil || cfg.Max != nil {
		if f.FieldType != TypeNumber {
			return errors.New("min/max only apply to number fields")
		}
		if cfg.Min != nil && cfg.Max != nil && *cfg.Min > *cfg.Max {
			return errors.New("min must not exceed max")
		}
	}
	return nil
}

// MaxLength extracts the max_length constraint, or nil when unset.
func (f *DynamicField) MaxLength() *int {
	if len(f.SchemaConfig) == 0 {
		return nil
	}
	var cfg SchemaConfig
	if err := json.Unmarshal(f.SchemaConfig, &cfg); err != nil {
		return nil
	}
	return cfg.MaxLength
}

// AssignOptionIDs gives fresh IDs to options that do not have one yet.
// Existing IDs are never rewritten, so stored row values keep their meaning.
func (f *DynamicField) AssignOptionIDs() {
	var next int64
	for _, opt := range f.Options {
		if opt.ID > next {
			next = opt.ID
		}
	}
	for i := range f.Options {
		if f.Options[i].ID == 0 {
			next++
			f.Options[i].ID = next
		}
	}
}

// ColumnType maps the field type onto the column added to the entity table.
func (f *DynamicField) ColumnType() string {
	switch f.FieldType {
	case TypeNumber:
		return "bigint"
	case TypeDatetime:
		return "timestamptz"
	case TypeSelect:
		return "text[]"
	default:
		return "text"
	}
}
