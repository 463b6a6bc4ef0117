package model

import "math"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	// MaxPageNumber keeps Offset within int for any limit.
	MaxPageNumber = math.MaxInt / MaxPageLimit
)

type Page struct {
	Number int
	Limit  int
}

func NewPage(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Number: number, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// TotalPages reports how many pages of this size cover total rows.
func (p Page) TotalPages(total int) int {
	if p.Limit <= 0 || total == 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}
