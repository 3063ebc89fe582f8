package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Record is a typed entry of one collection. The store reads only the
// identifier and the declared index fields; every other field is opaque.
type Record interface {
	// RecordID returns the value of the collection's key field.
	RecordID() string

	// Collection returns the name of the collection the record belongs to.
	Collection() string

	// Validate checks business fields where a caller constructs the record.
	// It never modifies the record.
	Validate() error
}

// Normalizer is implemented by records with derived fields.
type Normalizer interface {
	// Normalize fills derived fields that are empty.
	Normalize()
}

// Normalize fills the derived fields of rec, if it has any.
func Normalize(rec Record) {
	if n, ok := rec.(Normalizer); ok {
		n.Normalize()
	}
}

// Record validation errors.
var (
	ErrMissingField  = errors.New("required field is empty")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
	ErrInvalidType   = errors.New("invalid type value")
)

// DateLayout is the calendar date format shared by every dated record.
const DateLayout = "2006-01-02"

// NewRecord returns an empty record of the type stored in collection.
func NewRecord(collection string) (Record, error) {
	switch collection {
	case CollectionAccounts:
		return &Account{}, nil
	case CollectionDiaries:
		return &Diary{}, nil
	case CollectionGames:
		return &Game{}, nil
	case CollectionFoods:
		return &Food{}, nil
	case CollectionIngredients:
		return &Ingredient{}, nil
	case CollectionSettings:
		return &Setting{}, nil
	case CollectionPhotos:
		return &Photo{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
}

// DecodeRecord unmarshals data into the record type of collection.
// Unknown JSON fields are ignored.
func DecodeRecord(collection string, data []byte) (Record, error) {
	rec, err := NewRecord(collection)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("%w: decoding %s record: %v", ErrInvalidData, collection, err)
	}
	return rec, nil
}

// CheckRecord verifies that rec can be written to collection: it must be of
// the collection's type and carry a non-empty identifier.
func CheckRecord(collection string, rec Record) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidData)
	}
	if rec.Collection() != collection {
		return fmt.Errorf("%w: %s record written to %s", ErrInvalidData, rec.Collection(), collection)
	}
	if rec.RecordID() == "" {
		return ErrInvalidID
	}
	return nil
}

// FieldValue returns the JSON value of field in rec. The second result is
// false when the field is absent.
func FieldValue(rec Record, field string) (any, bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, false, fmt.Errorf("encoding record: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false, fmt.Errorf("decoding record fields: %w", err)
	}
	v, ok := fields[field]
	return v, ok, nil
}

// NormalizeIndexValue converts a lookup value to the form it takes inside a
// decoded JSON document, so that 5, int64(5) and 5.0 compare equal. Only
// strings, numbers and booleans can be indexed.
func NormalizeIndexValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: index value: %v", ErrInvalidData, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: index value: %v", ErrInvalidData, err)
	}
	switch out.(type) {
	case string, float64, bool:
		return out, nil
	default:
		return nil, fmt.Errorf("%w: index value %T is not a scalar", ErrInvalidData, v)
	}
}

func requireField(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return nil
}

func validDate(name, value string, optional bool) error {
	if value == "" && optional {
		return nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidDate, name, value)
	}
	return nil
}
