package graph

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "ontology",
		Category:    "entity",
		Version:     "v1",
		Description: "Ontology entity payload carrying the statements about one subject",
		Factory:     func() any { return &EntityPayload{} },
	})
	if err != nil {
		panic("failed to register ontology EntityPayload: " + err.Error())
	}
}

// EntityType is the message type for ontology entity payloads.
var EntityType = message.Type{Domain: "ontology", Category: "entity", Version: "v1"}

// EntityPayload implements message.Payload for one subject of an ontology graph.
type EntityPayload struct {
	EntityID_  string           `json:"id"`
	Ontology   string           `json:"ontology,omitempty"`
	TripleData []message.Triple `json:"triples"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (e *EntityPayload) EntityID() string          { return e.EntityID_ }
func (e *EntityPayload) Triples() []message.Triple { return e.TripleData }
func (e *EntityPayload) Schema() message.Type      { return EntityType }

func (e *EntityPayload) Validate() error {
	if e.EntityID_ == "" {
		return errors.New("entity ID is required")
	}
	if len(e.TripleData) == 0 {
		return errors.New("at least one triple is required")
	}
	return nil
}

func (e *EntityPayload) MarshalJSON() ([]byte, error) {
	type Alias EntityPayload
	return json.Marshal((*Alias)(e))
}

func (e *EntityPayload) UnmarshalJSON(data []byte) error {
	type Alias EntityPayload
	return json.Unmarshal(data, (*Alias)(e))
}
