// Package demog supplies age and sex attributes for simulated individuals,
// either from a synthetic normal-distribution model or from an external
// population-data file.
package demog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/idmod/outbreak/internal/stoch"
)

// Sampler produces one (age, sex) pair per call, drawing from the given
// stream so population construction stays reproducible.
type Sampler interface {
	AgeSex(r *stoch.Stream) (age float64, sex int, err error)
}

// DataSourceError reports that the external population-data source could
// not be used. Callers may opt into the synthetic fallback; the error is
// never swallowed silently.
type DataSourceError struct {
	Path string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("population data source %s unavailable: %v (fix the data path or fall back to the synthetic sampler)", e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// Synthetic samples sex uniformly and age from a clamped normal
// distribution.
type Synthetic struct {
	MinAge, MaxAge float64
	AgeMean        float64
	AgeStd         float64
}

// NewSynthetic returns the default synthetic model: ages normal(40, 15)
// clamped to [0, 99], sexes evenly split.
func NewSynthetic() Synthetic {
	return Synthetic{MinAge: 0, MaxAge: 99, AgeMean: 40, AgeStd: 15}
}

func (s Synthetic) AgeSex(r *stoch.Stream) (float64, int, error) {
	sex := r.Intn(2)
	age := r.Normal(s.AgeMean, s.AgeStd)
	if age < s.MinAge {
		age = s.MinAge
	}
	if age > s.MaxAge {
		age = s.MaxAge
	}
	return age, sex, nil
}

// File samples uniformly from the rows of a population-data CSV.
type File struct {
	path string
	rows []record
}

type record struct {
	age float64
	sex int
}

// LoadFile reads a population file of "age,sex" rows (header optional, sex
// is 0 or 1). Any failure surfaces as a DataSourceError.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataSourceError{Path: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	var rows []record
	line := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DataSourceError{Path: path, Err: err}
		}
		line++
		age, ageErr := strconv.ParseFloat(fields[0], 64)
		sex, sexErr := strconv.Atoi(fields[1])
		if ageErr != nil || sexErr != nil {
			if line == 1 {
				// Header row.
				continue
			}
			return nil, &DataSourceError{Path: path, Err: fmt.Errorf("line %d: want age,sex numbers, got %q,%q", line, fields[0], fields[1])}
		}
		if age < 0 || (sex != 0 && sex != 1) {
			return nil, &DataSourceError{Path: path, Err: fmt.Errorf("line %d: age must be non-negative and sex 0 or 1", line)}
		}
		rows = append(rows, record{age: age, sex: sex})
	}
	if len(rows) == 0 {
		return nil, &DataSourceError{Path: path, Err: fmt.Errorf("no usable rows")}
	}
	return &File{path: path, rows: rows}, nil
}

func (f *File) AgeSex(r *stoch.Stream) (float64, int, error) {
	row := f.rows[r.Intn(len(f.rows))]
	return row.age, row.sex, nil
}
