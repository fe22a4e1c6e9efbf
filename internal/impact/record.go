package impact

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
	"github.com/MrJamesThe3rd/reclaim/internal/selection"
)

// DispositionSource is how a raw record states its disposition: either a
// single status string or the three mutually exclusive flags. Status and
// Flags are the only implementations.
type DispositionSource interface {
	Resolve() (inventory.Disposition, bool)
	isDispositionSource()
}

// Status is a free-form status string such as "resold" or "scrap".
type Status string

func (s Status) Resolve() (inventory.Disposition, bool) {
	return inventory.DispositionFromStatus(string(s))
}

func (Status) isDispositionSource() {}

// Flags resolves only when exactly one flag is set.
type Flags struct {
	Reused   bool
	Resold   bool
	Scrapped bool
}

func (f Flags) Resolve() (inventory.Disposition, bool) {
	return inventory.DispositionFromFlags(f.Reused, f.Resold, f.Scrapped)
}

func (Flags) isDispositionSource() {}

// Record is one raw item-like input to Aggregate. A nil Disposition never resolves.
type Record struct {
	ID          string
	ProductType string
	Grade       string
	Disposition DispositionSource

	// malformed marks input that could not be read as a record at all.
	malformed bool
}

// Malformed reports whether the record was decoded from unusable input.
func (r Record) Malformed() bool { return r.malformed }

// UnmarshalJSON accepts either a "status" string or reused/resold/scrapped
// flags. "scraped" is read as an alias of "scrapped". Scalar fields of the
// wrong type are coerced to strings. Input that is not an object, or whose
// fields cannot be read, yields a malformed record instead of an error.
func (r *Record) UnmarshalJSON(data []byte) error {
	*r = Record{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		r.malformed = true
		return nil
	}

	var ok bool

	if r.ID, ok = scalarField(raw, "id"); !ok {
		r.malformed = true
	}

	r.ID = strings.TrimSpace(r.ID)

	if r.ProductType, ok = scalarField(raw, "productType"); !ok {
		r.malformed = true
	}

	if r.ProductType == "" {
		if r.ProductType, ok = scalarField(raw, "productTypeId"); !ok {
			r.malformed = true
		}
	}

	if r.Grade, ok = scalarField(raw, "grade"); !ok {
		r.malformed = true
	}

	status, ok := scalarField(raw, "status")
	if !ok {
		r.malformed = true
	}

	if strings.TrimSpace(status) != "" {
		r.Disposition = Status(status)
		return nil
	}

	var f Flags

	flags := []struct {
		key string
		dst *bool
	}{
		{"reused", &f.Reused},
		{"resold", &f.Resold},
		{"scrapped", &f.Scrapped},
		{"scraped", &f.Scrapped},
	}

	for _, fl := range flags {
		v, ok := boolField(raw, fl.key)
		if !ok {
			r.malformed = true
		}

		*fl.dst = *fl.dst || v
	}

	r.Disposition = f

	return nil
}

// scalarField returns "" for an absent or null field and false when the
// field holds an object or array.
func scalarField(raw map[string]json.RawMessage, key string) (string, bool) {
	v, present := raw[key]
	if !present || isNull(v) {
		return "", true
	}

	s, err := selection.Scalar(v)
	if err != nil {
		return "", false
	}

	return s, true
}

// boolField accepts JSON booleans and their string forms ("true", "0", ...).
func boolField(raw map[string]json.RawMessage, key string) (bool, bool) {
	v, present := raw[key]
	if !present || isNull(v) {
		return false, true
	}

	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b, true
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return false, false
	}

	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, false
	}

	return b, true
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// FromItem converts a stored item into an aggregation record.
func FromItem(it *inventory.Item) Record {
	reused, resold, scrapped := it.Disposition.Flags()

	return Record{
		ID:          it.ID,
		ProductType: it.ProductTypeID,
		Grade:       string(it.Grade),
		Disposition: Flags{Reused: reused, Resold: resold, Scrapped: scrapped},
	}
}
