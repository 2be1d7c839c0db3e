package model

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Ref is a reference to another record. The backend sends either the bare id
// or the populated document, so both shapes decode into Ref.
type Ref struct {
	ID       string `json:"_id"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
	City     string `json:"city,omitempty"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}

	var doc struct {
		ID       string `json:"_id"`
		AltID    string `json:"id"`
		Name     string `json:"name"`
		Location string `json:"location"`
		City     string `json:"city"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = doc.AltID
	}
	*r = Ref{ID: doc.ID, Name: doc.Name, Location: doc.Location, City: doc.City}
	return nil
}

// IsZero reports whether the reference points nowhere.
func (r Ref) IsZero() bool {
	return r.ID == ""
}

// Label prefers the populated name over the id.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
