package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance bounds how far a typo may be from a real key before the
// error falls back to listing all keys.
const maxSuggestDistance = 5

// KeyError reports a reference to a parameter name that does not exist.
// When a known key is close enough, Suggestion carries it.
type KeyError struct {
	Key        string
	Suggestion string
	Known      []string
}

func (e *KeyError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("parameter %q not found; did you mean %q?", e.Key, e.Suggestion)
	}
	return fmt.Sprintf("parameter %q not found; available parameters: %s", e.Key, strings.Join(e.Known, ", "))
}

// field adapts one Parameters struct field to name-keyed access.
type field struct {
	get func(*Parameters) any
	set func(*Parameters, any) error
}

// Store provides name-keyed access to a Parameters value. The key set is
// fixed at construction: reads and writes of unknown names fail with a
// KeyError, never create keys.
type Store struct {
	p      *Parameters
	fields map[string]field
}

// NewStore wraps p. Mutations through the store are visible to anything
// sharing p.
func NewStore(p *Parameters) *Store {
	return &Store{p: p, fields: map[string]field{
		"scale":            floatField(func(p *Parameters) *float64 { return &p.Scale }),
		"n":                intField(func(p *Parameters) *int { return &p.N }),
		"n_infected":       intField(func(p *Parameters) *int { return &p.NInfected }),
		"day0":             dateField(func(p *Parameters) *time.Time { return &p.Day0 }),
		"n_days":           intField(func(p *Parameters) *int { return &p.NDays }),
		"seed":             int64Field(func(p *Parameters) *int64 { return &p.Seed }),
		"usepopdata":       boolField(func(p *Parameters) *bool { return &p.UsePopData }),
		"r0":               floatField(func(p *Parameters) *float64 { return &p.R0 }),
		"contacts":         floatField(func(p *Parameters) *float64 { return &p.Contacts }),
		"incub":            floatField(func(p *Parameters) *float64 { return &p.Incub }),
		"dur":              floatField(func(p *Parameters) *float64 { return &p.Dur }),
		"cfr":              floatField(func(p *Parameters) *float64 { return &p.CFR }),
		"timetodie":        floatField(func(p *Parameters) *float64 { return &p.TimeToDie }),
		"timetodie_std":    floatField(func(p *Parameters) *float64 { return &p.TimeToDieStd }),
		"sensitivity":      floatField(func(p *Parameters) *float64 { return &p.Sensitivity }),
		"symptomatic":      floatField(func(p *Parameters) *float64 { return &p.Symptomatic }),
		"intervene":        intField(func(p *Parameters) *int { return &p.Intervene }),
		"unintervene":      intField(func(p *Parameters) *int { return &p.Unintervene }),
		"intervention_eff": floatField(func(p *Parameters) *float64 { return &p.InterventionEff }),
		"daily_tests":      intsField(func(p *Parameters) *[]int { return &p.DailyTests }),
	}}
}

// Keys returns every valid parameter name, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of the named parameter.
func (s *Store) Get(name string) (any, error) {
	f, ok := s.fields[name]
	if !ok {
		return nil, s.keyError(name)
	}
	return f.get(s.p), nil
}

// Set assigns the named parameter. Numeric values may be given as any
// integer or float type, or as a string (the CLI override path).
func (s *Store) Set(name string, value any) error {
	f, ok := s.fields[name]
	if !ok {
		return s.keyError(name)
	}
	if err := f.set(s.p, value); err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	return nil
}

// BulkUpdate assigns every entry of values. All names are checked before
// anything is written, so a bad key leaves the parameters untouched.
func (s *Store) BulkUpdate(values map[string]any) error {
	for name := range values {
		if _, ok := s.fields[name]; !ok {
			return s.keyError(name)
		}
	}
	for name, v := range values {
		if err := s.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) keyError(name string) *KeyError {
	e := &KeyError{Key: name, Known: s.Keys()}
	best := maxSuggestDistance + 1
	for _, k := range e.Known {
		if d := levenshtein.ComputeDistance(name, k); d < best {
			best = d
			e.Suggestion = k
		}
	}
	return e
}

func floatField(ptr func(*Parameters) *float64) field {
	return field{
		get: func(p *Parameters) any { return *ptr(p) },
		set: func(p *Parameters, v any) error {
			f, err := asFloat(v)
			if err != nil {
				return err
			}
			*ptr(p) = f
			return nil
		},
	}
}

func intField(ptr func(*Parameters) *int) field {
	return field{
		get: func(p *Parameters) any { return *ptr(p) },
		set: func(p *Parameters, v any) error {
			n, err := asInt(v)
			if err != nil {
				return err
			}
			*ptr(p) = int(n)
			return nil
		},
	}
}

func int64Field(ptr func(*Parameters) *int64) field {
	return field{
		get: func(p *Parameters) any { return *ptr(p) },
		set: func(p *Parameters, v any) error {
			n, err := asInt(v)
			if err != nil {
				return err
			}
			*ptr(p) = n
			return nil
		},
	}
}

func boolField(ptr func(*Parameters) *bool) field {
	return field{
		get: func(p *Parameters) any { return *ptr(p) },
		set: func(p *Parameters, v any) error {
			switch x := v.(type) {
			case bool:
				*ptr(p) = x
				return nil
			case string:
				b, err := strconv.ParseBool(x)
				if err != nil {
					return fmt.Errorf("want a boolean, got %q", x)
				}
				*ptr(p) = b
				return nil
			default:
				return fmt.Errorf("want a boolean, got %T", v)
			}
		},
	}
}

func dateField(ptr func(*Parameters) *time.Time) field {
	return field{
		get: func(p *Parameters) any { return *ptr(p) },
		set: func(p *Parameters, v any) error {
			switch x := v.(type) {
			case time.Time:
				*ptr(p) = x
				return nil
			case string:
				t, err := time.Parse("2006-01-02", x)
				if err != nil {
					return fmt.Errorf("want a YYYY-MM-DD date, got %q", x)
				}
				*ptr(p) = t
				return nil
			default:
				return fmt.Errorf("want a date, got %T", v)
			}
		},
	}
}

func intsField(ptr func(*Parameters) *[]int) field {
	return field{
		get: func(p *Parameters) any { return *ptr(p) },
		set: func(p *Parameters, v any) error {
			switch x := v.(type) {
			case []int:
				*ptr(p) = append([]int(nil), x...)
				return nil
			case string:
				// Comma-separated, e.g. "0,0,10,20".
				parts := strings.Split(x, ",")
				out := make([]int, 0, len(parts))
				for _, part := range parts {
					n, err := strconv.Atoi(strings.TrimSpace(part))
					if err != nil {
						return fmt.Errorf("want comma-separated integers, got %q", x)
					}
					out = append(out, n)
				}
				*ptr(p) = out
				return nil
			default:
				return fmt.Errorf("want an integer list, got %T", v)
			}
		},
	}
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("want a number, got %q", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("want a number, got %T", v)
	}
}

func asInt(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		n := int64(x)
		if float64(n) != x {
			return 0, fmt.Errorf("want an integer, got %g", x)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("want an integer, got %q", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("want an integer, got %T", v)
	}
}
