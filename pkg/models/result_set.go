package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
)

// ResultSet is one page of records returned by a search leg.
type ResultSet struct {
	Results      []entity.Entity `json:"results"`
	TotalResults int             `json:"totalResults,omitempty"`
	Page         int             `json:"page"`
	HasMore      bool            `json:"hasMore"`
	Success      bool            `json:"success"`
	Error        string          `json:"error,omitempty"`
	Message      string          `json:"message,omitempty"`
	// Malformed counts elements of a decoded results array that were not JSON objects
	Malformed    int             `json:"-"`
}

// Len is the number of records on the page.
func (r ResultSet) Len() int {
	return len(r.Results)
}

// Count is TotalResults when the source reported it, otherwise the page length.
func (r ResultSet) Count() int {
	if r.TotalResults > 0 {
		return r.TotalResults
	}
	return len(r.Results)
}

// EmptyResultSet is what a failed search leg contributes to a merge.
func EmptyResultSet() ResultSet {
	return ResultSet{Results: []entity.Entity{}}
}

// UnmarshalJSON accepts a bare array, an object with a results array, or a single record.
func (r *ResultSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = EmptyResultSet()
		return nil
	}

	switch trimmed[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("failed to decode result array: %w", err)
		}
		results, malformed := decodeRecords(raw)
		*r = ResultSet{Results: results, Success: true, Malformed: malformed}
		return nil
	case '{':
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &keys); err != nil {
			return fmt.Errorf("failed to decode result object: %w", err)
		}
		if _, ok := keys["results"]; ok {
			type alias ResultSet
			var out struct {
				alias
				Results []json.RawMessage `json:"results"`
			}
			if err := json.Unmarshal(trimmed, &out); err != nil {
				return fmt.Errorf("failed to decode result set: %w", err)
			}
			*r = ResultSet(out.alias)
			r.Results, r.Malformed = decodeRecords(out.Results)
			return nil
		}
		var single entity.Entity
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
		*r = ResultSet{Results: []entity.Entity{single}, Success: true}
		return nil
	default:
		return fmt.Errorf("result set must be an array or object")
	}
}

// decodeRecords decodes each element on its own. Elements that are not objects are dropped and counted.
func decodeRecords(raw []json.RawMessage) ([]entity.Entity, int) {
	out := make([]entity.Entity, 0, len(raw))
	malformed := 0
	for _, item := range raw {
		var e entity.Entity
		if err := json.Unmarshal(item, &e); err != nil || e == nil {
			malformed++
			continue
		}
		out = append(out, e)
	}
	return out, malformed
}
