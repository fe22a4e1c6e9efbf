// Package selection turns a report selection into a canonical, hashable key.
//
// Two selections that differ only in array order, in omitted defaults, or in
// whether array elements were sent as numbers or strings produce the same key
// and therefore the same hash.
package selection

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
)

const (
	// PolicyLatest resolves factors against the current table.
	PolicyLatest = "latest"

	DefaultSchemaVersion = 0
)

// StringList decodes a JSON array whose elements may be strings, numbers or
// booleans, coercing each to its string form.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expected array: %w", err)
	}

	out := make([]string, 0, len(raw))

	for _, r := range raw {
		s, err := Scalar(r)
		if err != nil {
			return err
		}

		out = append(out, s)
	}

	*l = out

	return nil
}

// Scalar returns the string form of a JSON string, number, boolean or null.
func Scalar(r json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(r))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}

	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String(), nil
		}

		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case nil:
		return "null", nil
	default:
		return "", fmt.Errorf("value %s is not a scalar", string(r))
	}
}

// Selection describes which items a sustainability report covers.
// Field order here is the canonical serialization order.
type Selection struct {
	OrgScope       string     `json:"orgScope"`
	PeriodFrom     string     `json:"periodFrom"`
	PeriodTo       string     `json:"periodTo"`
	CustomerIDs    StringList `json:"customerIds"`
	ProductTypeIDs StringList `json:"productTypeIds"`
	ItemIDs        StringList `json:"itemIds"`
	FactorPolicy   string     `json:"factorPolicy"`
	SchemaVersion  int        `json:"schemaVersion"`
}

// Canonicalize returns a copy with defaults applied and every array sorted.
// Arrays are never nil in the result so empty and omitted serialize alike.
func Canonicalize(s Selection) Selection {
	c := Selection{
		OrgScope:       strings.TrimSpace(s.OrgScope),
		PeriodFrom:     strings.TrimSpace(s.PeriodFrom),
		PeriodTo:       strings.TrimSpace(s.PeriodTo),
		CustomerIDs:    sorted(s.CustomerIDs),
		ProductTypeIDs: sorted(s.ProductTypeIDs),
		ItemIDs:        sorted(s.ItemIDs),
		FactorPolicy:   strings.TrimSpace(s.FactorPolicy),
		SchemaVersion:  s.SchemaVersion,
	}

	if c.FactorPolicy == "" {
		c.FactorPolicy = PolicyLatest
	}

	return c
}

func sorted(l StringList) StringList {
	out := make(StringList, len(l))
	copy(out, l)
	slices.Sort(out)

	return out
}

// Key is the canonical JSON encoding of s.
func Key(s Selection) (string, error) {
	b, err := json.Marshal(Canonicalize(s))
	if err != nil {
		return "", fmt.Errorf("encoding selection: %w", err)
	}

	return string(b), nil
}

// Hash is the hex SHA-256 digest of the canonical key.
func Hash(s Selection) (string, error) {
	key, err := Key(s)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:]), nil
}

// ManifestID derives the manifest identity from org scope, policy tag and selection hash.
func ManifestID(orgScope, policy, selectionHash string) string {
	sum := sha256.Sum256([]byte(orgScope + "|" + policy + "|" + selectionHash))
	return hex.EncodeToString(sum[:])
}

// Period parses the optional period bounds. A date-only upper bound is
// inclusive of that whole day.
func (s Selection) Period() (from, to *time.Time, err error) {
	if s.PeriodFrom != "" {
		t, err := parseBound(s.PeriodFrom)
		if err != nil {
			return nil, nil, apperr.InvalidArgument("invalid periodFrom %q", s.PeriodFrom)
		}

		from = &t
	}

	if s.PeriodTo != "" {
		t, err := parseBound(s.PeriodTo)
		if err != nil {
			return nil, nil, apperr.InvalidArgument("invalid periodTo %q", s.PeriodTo)
		}

		if len(s.PeriodTo) == len(time.DateOnly) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}

		to = &t
	}

	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, apperr.InvalidArgument("periodTo is before periodFrom")
	}

	return from, to, nil
}

func parseBound(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}

	return time.Parse(time.DateOnly, v)
}
