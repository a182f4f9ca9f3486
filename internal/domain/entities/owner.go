package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OwnerRef identifies the user that owns a feedback or comment.
//
// Endpoints disagree on the shape of the owner field: some return the bare
// user id (number or string), others a nested user object. OwnerRef accepts
// every shape at decode time so comparisons elsewhere only ever see a string id.
type OwnerRef struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// UnmarshalJSON normalizes the owner field.
func (o *OwnerRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = OwnerRef{}
		return nil
	}

	if data[0] == '{' {
		var nested struct {
			ID       json.RawMessage `json:"id"`
			Username string          `json:"username"`
		}
		if err := json.Unmarshal(data, &nested); err != nil {
			return fmt.Errorf("decode owner object: %w", err)
		}
		id, err := scalarID(nested.ID)
		if err != nil {
			return err
		}
		*o = OwnerRef{ID: id, Username: nested.Username}
		return nil
	}

	id, err := scalarID(data)
	if err != nil {
		return err
	}
	*o = OwnerRef{ID: id}
	return nil
}

// IsZero reports whether no owner is known.
func (o OwnerRef) IsZero() bool {
	return o.ID == ""
}

// IDSet is the set of user ids that upvoted a feedback, in server order.
type IDSet []string

// UnmarshalJSON accepts ids as numbers, strings or user objects.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode id set: %w", err)
	}

	out := make(IDSet, 0, len(raw))
	for _, item := range raw {
		var ref OwnerRef
		if err := ref.UnmarshalJSON(item); err != nil {
			return err
		}
		if ref.ID != "" {
			out = append(out, ref.ID)
		}
	}
	*s = out
	return nil
}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

func scalarID(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("decode id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}
