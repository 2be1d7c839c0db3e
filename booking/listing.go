package booking

import (
	"moviebook-cli/model"
)

// TimeOfDay buckets a show's start time.
type TimeOfDay string

const (
	Morning   TimeOfDay = "Morning"
	Afternoon TimeOfDay = "Afternoon"
	Evening   TimeOfDay = "Evening"
	Night     TimeOfDay = "Night"
)

var TimesOfDay = []TimeOfDay{Morning, Afternoon, Evening, Night}

// TimeOfDayOf returns the bucket for a timing string.
func TimeOfDayOf(timing string) (TimeOfDay, error) {
	clock, err := ParseTiming(timing)
	if err != nil {
		return "", err
	}
	switch h := clock.Hour; {
	case h >= 6 && h < 12:
		return Morning, nil
	case h >= 12 && h < 16:
		return Afternoon, nil
	case h >= 16 && h < 20:
		return Evening, nil
	default:
		return Night, nil
	}
}

// PriceRange is an inclusive price band; Max <= 0 means unbounded.
type PriceRange struct {
	Label string
	Min   float64
	Max   float64
}

var PriceRanges = []PriceRange{
	{Label: "Rs. 0-100", Min: 0, Max: 100},
	{Label: "Rs. 101-200", Min: 100, Max: 200},
	{Label: "Rs. 201-300", Min: 200, Max: 300},
	{Label: "Rs. 301-350", Min: 300, Max: 350},
	{Label: "Rs. 351+", Min: 350},
}

// Contains reports whether price falls in (Min, Max]; the first band also takes 0.
func (r PriceRange) Contains(price float64) bool {
	if r.Min == 0 && price < 0 {
		return false
	}
	if r.Min > 0 && price <= r.Min {
		return false
	}
	return r.Max <= 0 || price <= r.Max
}

func (r PriceRange) String() string {
	return r.Label
}

// ShowFilter narrows show listings. Empty lists match everything.
type ShowFilter struct {
	Times  []TimeOfDay
	Prices []PriceRange
}

func (f ShowFilter) Empty() bool {
	return len(f.Times) == 0 && len(f.Prices) == 0
}

// Match reports whether show passes the filter. Shows with unparseable timings
// never match a time filter.
func (f ShowFilter) Match(show model.Show) bool {
	if len(f.Prices) > 0 {
		ok := false
		for _, r := range f.Prices {
			if r.Contains(show.Price) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.Times) > 0 {
		tod, err := TimeOfDayOf(show.Timings)
		if err != nil {
			return false
		}
		ok := false
		for _, t := range f.Times {
			if t == tod {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func (f ShowFilter) Apply(shows []model.Show) []model.Show {
	if f.Empty() {
		return shows
	}
	out := make([]model.Show, 0, len(shows))
	for _, s := range shows {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// TheatreShows is one theatre and its shows in listing order.
type TheatreShows struct {
	Theatre model.Ref
	Shows   []model.Show
}

// GroupByTheatre groups shows by theatre id keeping first-seen order.
func GroupByTheatre(shows []model.Show) []TheatreShows {
	index := make(map[string]int)
	var out []TheatreShows
	for _, s := range shows {
		key := s.TheatreId.ID
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, TheatreShows{Theatre: s.TheatreId})
		}
		out[i].Shows = append(out[i].Shows, s)
	}
	return out
}

// NextTimeOfDay cycles through the buckets; the empty value means no filter.
func NextTimeOfDay(cur TimeOfDay) TimeOfDay {
	if cur == "" {
		return TimesOfDay[0]
	}
	for i, t := range TimesOfDay {
		if t == cur && i+1 < len(TimesOfDay) {
			return TimesOfDay[i+1]
		}
	}
	return ""
}
