package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Well-known fact keys. The vocabulary is open: extractors may produce any
// lower_snake_case key, these are just the ones other components look at.
const (
	FactName                      = "name"
	FactCustomerName              = "customer_name"
	FactPhone                     = "phone"
	FactEmail                     = "email"
	FactPartySize                 = "party_size"
	FactReservationDate           = "reservation_date"
	FactReservationTime           = "reservation_time"
	FactSeatingPreference         = "seating_preference"
	FactWantsToBook               = "wants_to_book"
	FactClaimsExistingReservation = "claims_existing_reservation"
	FactHasReservation            = "has_reservation"
	FactBookingConfirmed          = "booking_confirmed"
	FactBudget                    = "budget"
	FactBedrooms                  = "bedrooms"
	FactBathrooms                 = "bathrooms"
	FactStayDuration              = "stay_duration"
	FactRoomType                  = "room_type"
	FactMembershipType            = "membership_type"
	FactServiceInterest           = "service_interest"
	FactSignedUpFor               = "signed_up_for"
)

// FactTrue is the textual form of a boolean fact.
const FactTrue = "true"

// FactSet is an insertion-ordered mapping of fact name to textual value.
// The zero value is ready to use.
type FactSet struct {
	keys   []string
	values map[string]string
}

// NewFactSet builds a FactSet from alternating key, value pairs.
func NewFactSet(pairs ...string) FactSet {
	var fs FactSet
	for i := 0; i+1 < len(pairs); i += 2 {
		fs.Set(pairs[i], pairs[i+1])
	}
	return fs
}

// NormalizeFactKey lower-cases a key and turns spaces and hyphens into underscores.
func NormalizeFactKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(key)
}

// Set stores value under key, keeping the original position of an existing key.
func (f *FactSet) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value stored under key.
func (f FactSet) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Value returns the value under key or "" when absent.
func (f FactSet) Value(key string) string {
	return f.values[key]
}

// Has reports whether key holds a non-empty value.
func (f FactSet) Has(key string) bool {
	return strings.TrimSpace(f.values[key]) != ""
}

// Delete removes key.
func (f *FactSet) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (f FactSet) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of facts.
func (f FactSet) Len() int {
	return len(f.keys)
}

// Clone returns an independent copy.
func (f FactSet) Clone() FactSet {
	var out FactSet
	for _, k := range f.keys {
		out.Set(k, f.values[k])
	}
	return out
}

// Map returns the facts as a plain map.
func (f FactSet) Map() map[string]string {
	out := make(map[string]string, len(f.keys))
	for _, k := range f.keys {
		out[k] = f.values[k]
	}
	return out
}

// Name returns the customer name fact, accepting the customer_name alias.
func (f FactSet) Name() string {
	if n := strings.TrimSpace(f.values[FactName]); n != "" {
		return n
	}
	return strings.TrimSpace(f.values[FactCustomerName])
}

// MarshalJSON encodes the set as a JSON object in insertion order.
func (f FactSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := sonic.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := sonic.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of string values, preserving key order.
func (f *FactSet) UnmarshalJSON(data []byte) error {
	*f = FactSet{}
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fact set must be a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fact key must be a string")
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("fact %q: %w", key, err)
		}
		f.Set(key, value)
	}

	_, err = dec.Token()
	return err
}
