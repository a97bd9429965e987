package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ID is an opaque record identifier. Legacy records carry 24-character hex
// object ids, which compare by value regardless of letter case.
type ID string

// UnmarshalJSON accepts a plain string or Mongo extended JSON ({"$oid": "..."}).
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var oid struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(data, &oid); err != nil || oid.OID == "" {
		return fmt.Errorf("id must be a string or {\"$oid\": ...}, got %s", data)
	}
	*id = ID(oid.OID)
	return nil
}

// Key is the normalized form used for comparisons and index lookups.
func (id ID) Key() string {
	s := strings.TrimSpace(string(id))
	if isObjectID(s) {
		return strings.ToLower(s)
	}
	return s
}

func (id ID) Equal(other ID) bool {
	return id.Key() == other.Key()
}

func (id ID) String() string { return string(id) }

func isObjectID(s string) bool {
	if len(s) != 24 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
