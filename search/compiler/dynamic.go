package compiler

import (
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"github.com/daleel/api/internal/pkg/log"
	searchErrors "github.com/daleel/api/search/errors"
	"github.com/daleel/api/search/models"
)

// compileDynFilters compiles the user-defined-field filters. The field name
// becomes an unquoted column reference in the emitted SQL, so two checks
// guard every item: the name must exist in the registry of searchable
// fields, and it must contain only [A-Za-z0-9_]. The charset check is the
// security barrier against identifier injection; values always flow through
// bind parameters.
//
// An unsupported {field_type, op} pair is logged and skipped rather than
// failing the search: the UI may replay filters persisted before a field
// was repurposed or removed.
func compileDynFilters(c *Compiled, filters []models.DynFilter, fields map[string]FieldDef) error {
	for _, f := range filters {
		def, ok := fields[f.Name]
		if !ok {
			log.Warn("dynamic filter references unknown field %q, skipping", f.Name)
			continue
		}
		if !isSafeIdentifier(f.Name) {
			return searchErrors.NewQueryError("dyn", fmt.Sprintf("illegal field name %q", f.Name))
		}

		if err := compileDynFilter(c, f, def); err != nil {
			return err
		}
	}
	return nil
}

func compileDynFilter(c *Compiled, f models.DynFilter, def FieldDef) error {
	switch def.FieldType {
	case "text", "long_text":
		if f.Op != models.DynOpContains {
			logUnsupported(f, def)
			return nil
		}
		v, ok := coerceString(f.Value)
		if !ok {
			return searchErrors.NewQueryError("dyn", fmt.Sprintf("field %q: value must be a string", f.Name))
		}
		c.Where(f.Name+" ILIKE ?", containsPattern(v))

	case "number":
		if f.Op != models.DynOpEq {
			logUnsupported(f, def)
			return nil
		}
		v, ok := coerceInt(f.Value)
		if !ok {
			return searchErrors.NewQueryError("dyn", fmt.Sprintf("field %q: value must be a number", f.Name))
		}
		c.Where(f.Name+" = ?", v)

	case "datetime":
		if f.Op != models.DynOpBetween {
			logUnsupported(f, def)
			return nil
		}
		values, ok := coerceStringList(f.Value)
		if !ok || len(values) == 0 || len(values) > 2 {
			return searchErrors.NewQueryError("dyn", fmt.Sprintf("field %q: value must be a one- or two-element date range", f.Name))
		}
		return compileDateRange(c, "dyn", f.Name, values)

	case "select":
		values, ok := coerceStringList(f.Value)
		if !ok {
			return searchErrors.NewQueryError("dyn", fmt.Sprintf("field %q: value must be a list of strings", f.Name))
		}
		// An empty selection contributes no predicate.
		if len(values) == 0 {
			return nil
		}
		switch f.Op {
		case models.DynOpContains:
			for _, v := range values {
				c.Where("array_to_string("+f.Name+", ' ') ILIKE ?", containsPattern(v))
			}
		case models.DynOpEq:
			c.Where(f.Name+" @> ?", pq.Array(values))
		case models.DynOpAny:
			c.Where(f.Name+" && ?", pq.Array(values))
		case models.DynOpAll:
			c.Where(f.Name+" @> ?", pq.Array(values))
		default:
			logUnsupported(f, def)
		}

	default:
		logUnsupported(f, def)
	}
	return nil
}

func logUnsupported(f models.DynFilter, def FieldDef) {
	log.Warn("unsupported dynamic filter op %q for field %q (%s), skipping", f.Op, f.Name, def.FieldType)
}

// isSafeIdentifier enforces the column-name charset. Every compilation call
// site must pass through it before interpolating a dynamic field name.
func isSafeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

func coerceString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}

func coerceInt(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		parsed, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func coerceStringList(v interface{}) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := coerceString(item)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		return []string{t}, true
	default:
		return nil, false
	}
}
