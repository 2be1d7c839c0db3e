package seating

import (
	"fmt"
	"strconv"
	"strings"
)

// Group is an inclusive range of seat numbers drawn together.
type Group struct {
	First int
	Last  int
}

// Row describes one row of the auditorium.
type Row struct {
	Letter byte
	Tier   Tier
	Groups []Group
}

// Layout is the fixed auditorium, in drawing order (farthest row first).
var Layout = buildLayout()

func buildLayout() []Row {
	var rows []Row
	add := func(tier Tier, letters string, groups ...Group) {
		for i := 0; i < len(letters); i++ {
			rows = append(rows, Row{Letter: letters[i], Tier: tier, Groups: groups})
		}
	}
	add(TierRecliner, "K", Group{1, 2}, Group{3, 9})
	add(TierPrimePlus, "JHGF", Group{1, 3}, Group{4, 12})
	add(TierPrime, "EDC", Group{1, 3}, Group{4, 9})
	add(TierClassic, "BA", Group{1, 3}, Group{4, 9})
	return rows
}

// SeatID formats the canonical id for a row letter and seat number.
func SeatID(row byte, number int) string {
	return string(row) + pad2(number)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// ParseSeatID splits a canonical seat id into row letter and number.
func ParseSeatID(id string) (byte, int, error) {
	if len(id) != 3 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeatID, id)
	}
	row := id[0]
	if row < 'A' || row > 'Z' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeatID, id)
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil || n < 1 || id[1] == '+' || id[1] == '-' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeatID, id)
	}
	return row, n, nil
}

// Normalize turns loosely written ids ("k5", " F12 ") into canonical form.
// Input that does not look like a seat is returned trimmed and upper-cased.
func Normalize(id string) string {
	id = strings.ToUpper(strings.TrimSpace(id))
	if len(id) < 2 || id[0] < 'A' || id[0] > 'Z' {
		return id
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil || n < 1 || n > 99 {
		return id
	}
	return SeatID(id[0], n)
}

// Seats returns the ids of a row, one slice per group.
func (r Row) Seats() [][]string {
	groups := make([][]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		ids := make([]string, 0, g.Last-g.First+1)
		for n := g.First; n <= g.Last; n++ {
			ids = append(ids, SeatID(r.Letter, n))
		}
		groups = append(groups, ids)
	}
	return groups
}

// Flat returns every seat of the row in order.
func (r Row) Flat() []string {
	var ids []string
	for _, g := range r.Seats() {
		ids = append(ids, g...)
	}
	return ids
}

// AllSeats lists every seat id of the layout in drawing order.
func AllSeats() []string {
	var ids []string
	for _, row := range Layout {
		ids = append(ids, row.Flat()...)
	}
	return ids
}

// Exists reports whether id names a seat of the layout.
func Exists(id string) bool {
	row, n, err := ParseSeatID(id)
	if err != nil {
		return false
	}
	for _, r := range Layout {
		if r.Letter != row {
			continue
		}
		for _, g := range r.Groups {
			if n >= g.First && n <= g.Last {
				return true
			}
		}
	}
	return false
}

// RowsOf returns the layout rows that belong to a tier.
func RowsOf(t Tier) []Row {
	var rows []Row
	for _, r := range Layout {
		if r.Tier == t {
			rows = append(rows, r)
		}
	}
	return rows
}
