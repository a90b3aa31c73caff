package dto

import (
	"rentcore/internal/domain/availability"
)

// DateLayout is the wire format for every date in the API: ISO calendar
// dates, no time component.
const DateLayout = "2006-01-02"

type Conflict struct {
	Type        string `json:"type"`
	From        string `json:"from"`
	To          string `json:"to"`
	Description string `json:"description"`
	SourceID    string `json:"source_id"`
}

type AvailabilityReport struct {
	PropertyID string     `json:"property_id"`
	Mode       string     `json:"mode,omitempty"`
	Available  bool       `json:"available"`
	Reason     string     `json:"reason,omitempty"`
	Conflicts  []Conflict `json:"conflicts"`
}

func MapConflicts(conflicts []availability.Conflict) []Conflict {
	out := make([]Conflict, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, Conflict{
			Type:        string(c.Type),
			From:        c.Range.Start.Format(DateLayout),
			To:          c.Range.End.Format(DateLayout),
			Description: c.Description,
			SourceID:    c.SourceID,
		})
	}
	return out
}
