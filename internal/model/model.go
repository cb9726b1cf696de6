package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format letters carry on the wire.
const DateLayout = "2006-01-02"

// Kind names one of the three collections the dashboard manages.
type Kind string

const (
	KindAgents  Kind = "agents"
	KindClients Kind = "clients"
	KindLetters Kind = "letters"
)

// Kinds lists every collection in display order.
var Kinds = []Kind{KindAgents, KindClients, KindLetters}

// Path is the REST collection path for the kind.
func (k Kind) Path() string {
	switch k {
	case KindAgents:
		return "/dolls"
	case KindClients:
		return "/clientes"
	case KindLetters:
		return "/cartas"
	}
	return ""
}

// Singular is the human name of one record of the kind.
func (k Kind) Singular() string {
	switch k {
	case KindAgents:
		return "agent"
	case KindClients:
		return "client"
	case KindLetters:
		return "letter"
	}
	return string(k)
}

// ParseKind accepts the collection name or its REST path segment.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "/")) {
	case "agents", "agent", "dolls", "doll":
		return KindAgents, nil
	case "clients", "client", "clientes", "cliente":
		return KindClients, nil
	case "letters", "letter", "cartas", "carta":
		return KindLetters, nil
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

// Record is implemented by every collection element.
type Record interface {
	RecordID() uint64
	RecordKind() Kind
}

// Agent (a "doll") writes letters on behalf of clients.
// Letters is maintained by the server and never sent back on update.
type Agent struct {
	ID      uint64 `json:"id"`
	Name    string `json:"nombre"`
	Age     int    `json:"edad"`
	Active  bool   `json:"activo"`
	Letters int    `json:"cartas"`
}

func (a Agent) RecordID() uint64 { return a.ID }
func (Agent) RecordKind() Kind    { return KindAgents }

// Validate checks the fields a client may write.
func (a Agent) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Kind: KindAgents, Field: "nombre", Reason: "is required"}
	}
	if a.Age <= 0 {
		return &ValidationError{Kind: KindAgents, Field: "edad", Reason: "must be a positive integer"}
	}
	return nil
}

// AgentPatch is the writable subset of an Agent.
type AgentPatch struct {
	Name   string `json:"nombre"`
	Age    int    `json:"edad"`
	Active bool   `json:"activo"`
}

// Validate mirrors Agent.Validate for updates.
func (p AgentPatch) Validate() error {
	return Agent{Name: p.Name, Age: p.Age}.Validate()
}

// Client requests letters.
type Client struct {
	ID      uint64 `json:"id"`
	Name    string `json:"nombre"`
	City    string `json:"ciudad"`
	Reason  string `json:"motivo"`
	Contact string `json:"contacto"`
}

func (c Client) RecordID() uint64 { return c.ID }
func (Client) RecordKind() Kind    { return KindClients }

// Label is how a client is offered in pickers.
func (c Client) Label() string { return fmt.Sprintf("%s (%s)", c.Name, c.City) }

// Validate requires every field to be non-blank.
func (c Client) Validate() error {
	fields := []struct{ name, value string }{
		{"nombre", c.Name},
		{"ciudad", c.City},
		{"motivo", c.Reason},
		{"contacto", c.Contact},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Kind: KindClients, Field: f.name, Reason: "is required"}
		}
	}
	return nil
}

// Trimmed returns c with surrounding whitespace removed from every field.
func (c Client) Trimmed() Client {
	c.Name = strings.TrimSpace(c.Name)
	c.City = strings.TrimSpace(c.City)
	c.Reason = strings.TrimSpace(c.Reason)
	c.Contact = strings.TrimSpace(c.Contact)
	return c
}

// Letter is a correspondence item moving through draft, reviewed and sent.
type Letter struct {
	ID       uint64 `json:"id"`
	ClientID uint64 `json:"cliente_id"`
	AgentID  uint64 `json:"doll_id,omitempty"`
	Date     string `json:"fecha"`
	Content  string `json:"contenido"`
	Status   Status `json:"estado,omitempty"`
}

func (l Letter) RecordID() uint64 { return l.ID }
func (Letter) RecordKind() Kind    { return KindLetters }

// EffectiveStatus is the letter's status with unset read as draft.
func (l Letter) EffectiveStatus() Status {
	if l.Status == "" {
		return StatusDraft
	}
	return l.Status
}

// Validate checks the fields required to create a letter.
func (l Letter) Validate() error {
	if l.ClientID == 0 {
		return &ValidationError{Kind: KindLetters, Field: "cliente_id", Reason: "is required"}
	}
	if strings.TrimSpace(l.Date) == "" {
		return &ValidationError{Kind: KindLetters, Field: "fecha", Reason: "is required"}
	}
	if _, err := time.Parse(DateLayout, l.Date); err != nil {
		return &ValidationError{Kind: KindLetters, Field: "fecha", Reason: "must be YYYY-MM-DD"}
	}
	if strings.TrimSpace(l.Content) == "" {
		return &ValidationError{Kind: KindLetters, Field: "contenido", Reason: "is required"}
	}
	if l.Status != "" && !l.Status.Valid() {
		return &ValidationError{Kind: KindLetters, Field: "estado", Reason: "unknown status " + string(l.Status)}
	}
	return nil
}

// Today is the default date offered by the letter form.
func Today() string { return time.Now().Format(DateLayout) }

// ValidationError reports a missing or malformed field detected before any
// network call is made.
type ValidationError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s %s", e.Kind.Singular(), e.Field, e.Reason)
}
