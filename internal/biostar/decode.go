package biostar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// decodeRows extracts the row list from a vendor payload. The API nests
// collections under version-dependent key names, so the decoder tries a fixed
// ordered list of shapes and fails clearly when none match:
//
//  1. {"<key>": {"rows": […]}} for each given collection key
//  2. {"rows": […]}
//  3. a bare array
func decodeRows(body []byte, collectionKeys ...string) ([]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, key := range collectionKeys {
			inner, ok := envelope[key]
			if !ok {
				continue
			}
			var collection struct {
				Rows []json.RawMessage `json:"rows"`
			}
			if err := json.Unmarshal(inner, &collection); err == nil && collection.Rows != nil {
				return collection.Rows, nil
			}
		}
		if raw, ok := envelope["rows"]; ok {
			var rows []json.RawMessage
			if err := json.Unmarshal(raw, &rows); err == nil {
				return rows, nil
			}
		}
		return nil, fmt.Errorf("biostar: payload matches none of the known collection shapes (keys tried: %s)",
			strings.Join(collectionKeys, ", "))
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}
	return nil, fmt.Errorf("biostar: payload is neither a collection object nor an array")
}

// flexID tolerates vendor ids arriving as JSON numbers or numeric strings.
// Zero means absent.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("biostar: id %q is not numeric", s)
	}
	*f = flexID(n)
	return nil
}

// flexGroup tolerates the device group arriving as an {id, name} object or a
// bare id.
type flexGroup struct {
	ID   flexID
	Name string
}

func (g *flexGroup) UnmarshalJSON(b []byte) error {
	var obj struct {
		ID   flexID `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		g.ID = obj.ID
		g.Name = obj.Name
		return nil
	}
	var id flexID
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	g.ID = id
	return nil
}
