package dto

import (
	"time"

	"github.com/finvolt/ledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLineRequest defines one debit/credit line of a new journal entry.
type CreateLineRequest struct {
	AccountID   string           `json:"accountID" binding:"required"`
	Side        domain.EntrySide `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	Amount      decimal.Decimal  `json:"amount" binding:"required,positivedecimal"`
	Description string           `json:"description"`
}

// CreateEntryRequest defines the data needed to create a journal entry.
type CreateEntryRequest struct {
	PeriodID        string              `json:"periodID" binding:"required"`
	ReferenceNumber string              `json:"referenceNumber" binding:"required"`
	EntryDate       time.Time           `json:"entryDate" binding:"required"`
	Description     string              `json:"description"`
	Lines           []CreateLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateEntryRequest defines the data allowed for updating a draft entry.
// A nil Lines slice keeps the existing lines; a non-nil slice replaces them
// wholesale and is re-validated like a create.
type UpdateEntryRequest struct {
	EntryDate   *time.Time          `json:"entryDate"`
	Description *string             `json:"description"`
	Lines       []CreateLineRequest `json:"lines"`
}

// LineResponse defines the data returned for a journal line.
type LineResponse struct {
	LineID      string           `json:"lineID"`
	AccountID   string           `json:"accountID"`
	Side        domain.EntrySide `json:"side"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID         string             `json:"entryID"`
	PeriodID        string             `json:"periodID"`
	ReferenceNumber string             `json:"referenceNumber"`
	EntryDate       time.Time          `json:"entryDate"`
	Description     string             `json:"description"`
	Status          domain.EntryStatus `json:"status"`
	PostedBy        *string            `json:"postedBy,omitempty"`
	PostedAt        *time.Time         `json:"postedAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	CreatedBy       string             `json:"createdBy"`
	Lines           []LineResponse     `json:"lines,omitempty"`
}

// ListEntriesParams holds parameters for listing journal entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
	PeriodID  *string `form:"periodID"`
	Status    *string `form:"status"`
}

// ListEntriesResponse is the paginated entry listing payload.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToLineResponse converts a domain.JournalLine to LineResponse DTO.
func ToLineResponse(line *domain.JournalLine) LineResponse {
	return LineResponse{
		LineID:      line.LineID,
		AccountID:   line.AccountID,
		Side:        line.Side,
		Amount:      line.Amount,
		Description: line.Description,
	}
}

// ToLineResponses converts a slice of domain.JournalLine to []LineResponse.
func ToLineResponses(lines []domain.JournalLine) []LineResponse {
	responses := make([]LineResponse, len(lines))
	for i := range lines {
		responses[i] = ToLineResponse(&lines[i])
	}
	return responses
}

// ToEntryResponse converts a domain.JournalEntry to EntryResponse DTO.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:         e.EntryID,
		PeriodID:        e.PeriodID,
		ReferenceNumber: e.ReferenceNumber,
		EntryDate:       e.EntryDate,
		Description:     e.Description,
		Status:          e.Status,
		PostedBy:        e.PostedBy,
		PostedAt:        e.PostedAt,
		CreatedAt:       e.CreatedAt,
		CreatedBy:       e.CreatedBy,
	}
	if e.Lines != nil {
		resp.Lines = ToLineResponses(e.Lines)
	}
	return resp
}
