package seating

import (
	"fmt"
	"slices"
)

// Status is the derived state of one seat.
type Status int

const (
	Available Status = iota
	Selected
	Booked
)

func (s Status) String() string {
	switch s {
	case Selected:
		return "selected"
	case Booked:
		return "booked"
	default:
		return "available"
	}
}

// Snapshot is the selection as reported to the host after each change.
type Snapshot struct {
	Seats     []string
	TotalCost float64
}

// Count is the number of selected seats.
func (s Snapshot) Count() int {
	return len(s.Seats)
}

// Selection holds the seats picked during one show-booking session.
// It is not safe for concurrent use; one UI loop owns it.
type Selection struct {
	prices   PriceTable
	booked   map[string]bool
	selected []string
	onChange func(Snapshot)
}

// NewSelection starts an empty selection. An empty price table falls back to
// DefaultPrices. Booked ids are normalized so lookups match generated ids.
func NewSelection(booked []string, prices PriceTable) *Selection {
	if prices.IsZero() {
		return NewSelectionWithPrices(booked, nil)
	}
	return NewSelectionWithPrices(booked, &prices)
}

// NewSelectionWithPrices prices seats exactly by prices, so an all-zero table
// makes every seat free. Only a nil table means DefaultPrices.
func NewSelectionWithPrices(booked []string, prices *PriceTable) *Selection {
	table := DefaultPrices()
	if prices != nil {
		table = *prices
	}
	set := make(map[string]bool, len(booked))
	for _, id := range booked {
		if id = Normalize(id); id != "" {
			set[id] = true
		}
	}
	return &Selection{
		prices: table,
		booked: set,
	}
}

// OnChange registers fn to be called after every change to the selection.
func (s *Selection) OnChange(fn func(Snapshot)) {
	s.onChange = fn
}

// Prices returns the table the selection was built with.
func (s *Selection) Prices() PriceTable {
	return s.prices
}

// Toggle flips a seat between available and selected and returns the new
// selection. Booked seats are left alone. Ids that are not part of the layout
// are rejected without changing anything.
func (s *Selection) Toggle(id string) (Snapshot, error) {
	if !Exists(id) {
		if _, _, err := ParseSeatID(id); err != nil {
			return s.Snapshot(), err
		}
		if _, err := TierOf(id); err != nil {
			return s.Snapshot(), err
		}
		return s.Snapshot(), fmt.Errorf("%w: %q is outside the layout", ErrInvalidSeatID, id)
	}
	if s.booked[id] {
		return s.Snapshot(), nil
	}

	if i := slices.Index(s.selected, id); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
	} else {
		s.selected = append(s.selected, id)
	}

	snap := s.Snapshot()
	if s.onChange != nil {
		s.onChange(snap)
	}
	return snap, nil
}

// Clear drops every selected seat.
func (s *Selection) Clear() Snapshot {
	if len(s.selected) == 0 {
		return s.Snapshot()
	}
	s.selected = nil
	snap := s.Snapshot()
	if s.onChange != nil {
		s.onChange(snap)
	}
	return snap
}

// Status reports the state of a seat. Booked wins over selected.
func (s *Selection) Status(id string) Status {
	if s.booked[id] {
		return Booked
	}
	if slices.Contains(s.selected, id) {
		return Selected
	}
	return Available
}

// IsBooked reports whether the seat was already sold when the session started.
func (s *Selection) IsBooked(id string) bool {
	return s.booked[id]
}

// TotalCost sums the tier price of every selected seat.
func (s *Selection) TotalCost() float64 {
	return s.prices.Cost(s.selected)
}

// Snapshot copies the current selection.
func (s *Selection) Snapshot() Snapshot {
	return Snapshot{
		Seats:     slices.Clone(s.selected),
		TotalCost: s.TotalCost(),
	}
}

// Cost sums the tier price of every seat. Seats whose tier cannot be resolved
// add nothing; Selection never holds one.
func (p PriceTable) Cost(seats []string) float64 {
	total := 0.0
	for _, id := range seats {
		tier, err := TierOf(id)
		if err != nil {
			continue
		}
		total += p.Price(tier)
	}
	return total
}
