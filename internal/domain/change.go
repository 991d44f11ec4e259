package domain

import (
	"sort"
	"strings"
)

// ChangeType represents the kind of change applied to the bot
type ChangeType string

const (
	ChangeTypeCode           ChangeType = "code"
	ChangeTypeConfig         ChangeType = "config"
	ChangeTypeStrategy       ChangeType = "strategy"
	ChangeTypeInfrastructure ChangeType = "infrastructure"
)

// ChangeAuthor represents who produced a change
type ChangeAuthor string

const (
	ChangeAuthorAgent ChangeAuthor = "agent"
	ChangeAuthorHuman ChangeAuthor = "human"
)

// ChangeStatus represents the lifecycle status of a change
type ChangeStatus string

const (
	ChangeStatusActive     ChangeStatus = "active"
	ChangeStatusReverted   ChangeStatus = "reverted"
	ChangeStatusSuperseded ChangeStatus = "superseded"
)

// HighImpactThreshold is the impact score above which a change counts as high impact
const HighImpactThreshold = 7.0

// ChangeRecord represents an immutable entry of the change history.
// Records are produced by an external change tracker and are only read here.
type ChangeRecord struct {
	ID          string       `json:"id" yaml:"id"`
	Timestamp   int64        `json:"timestamp" yaml:"timestamp"`
	Type        ChangeType   `json:"type" yaml:"type"`
	Files       []string     `json:"files" yaml:"files"`
	Description string       `json:"description" yaml:"description"`
	Reason      string       `json:"reason" yaml:"reason"`
	Author      ChangeAuthor `json:"author" yaml:"author"`
	ImpactScore float64      `json:"impactScore" yaml:"impactScore"`
	Status      ChangeStatus `json:"status" yaml:"status"`
}

// IsValid reports whether the change type is known
func (t ChangeType) IsValid() bool {
	switch t {
	case ChangeTypeCode, ChangeTypeConfig, ChangeTypeStrategy, ChangeTypeInfrastructure:
		return true
	}
	return false
}

// IsValid reports whether the author is known
func (a ChangeAuthor) IsValid() bool {
	return a == ChangeAuthorAgent || a == ChangeAuthorHuman
}

// IsValid reports whether the status is known
func (s ChangeStatus) IsValid() bool {
	switch s {
	case ChangeStatusActive, ChangeStatusReverted, ChangeStatusSuperseded:
		return true
	}
	return false
}

// Validate checks the record fields against the known enumerations
func (c ChangeRecord) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrChangeIDRequired
	}
	if !c.Type.IsValid() {
		return ErrInvalidChangeType
	}
	if !c.Author.IsValid() {
		return ErrInvalidChangeAuthor
	}
	if !c.Status.IsValid() {
		return ErrInvalidChangeStatus
	}
	return nil
}

// IsHighImpact reports whether the impact score exceeds HighImpactThreshold
func (c ChangeRecord) IsHighImpact() bool {
	return c.ImpactScore > HighImpactThreshold
}

// Clone returns a deep copy so callers never share the Files slice
func (c ChangeRecord) Clone() ChangeRecord {
	out := c
	if c.Files != nil {
		out.Files = append([]string(nil), c.Files...)
	}
	return out
}

// SortNewestFirst returns a copy of records ordered by descending timestamp
func SortNewestFirst(records []ChangeRecord) []ChangeRecord {
	out := make([]ChangeRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// Change record errors
var (
	ErrChangeIDRequired    = NewDomainError("change id is required")
	ErrInvalidChangeType   = NewDomainError("invalid change type")
	ErrInvalidChangeAuthor = NewDomainError("invalid change author")
	ErrInvalidChangeStatus = NewDomainError("invalid change status")
)

// DomainError represents a domain-specific error
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}
