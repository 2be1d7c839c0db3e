package seating

import (
	"errors"
	"fmt"
)

// Tier is a seat pricing category. It is derived from the row letter only.
type Tier string

const (
	TierRecliner  Tier = "recliner"
	TierPrimePlus Tier = "primePlus"
	TierPrime     Tier = "prime"
	TierClassic   Tier = "classic"
)

// Tiers lists every tier in the order it is drawn, farthest from the screen first.
var Tiers = []Tier{TierRecliner, TierPrimePlus, TierPrime, TierClassic}

var (
	ErrUnknownRow    = errors.New("unknown seat row")
	ErrInvalidSeatID = errors.New("invalid seat id")
)

var rowTiers = map[byte]Tier{
	'K': TierRecliner,
	'J': TierPrimePlus,
	'H': TierPrimePlus,
	'G': TierPrimePlus,
	'F': TierPrimePlus,
	'E': TierPrime,
	'D': TierPrime,
	'C': TierPrime,
	'B': TierClassic,
	'A': TierClassic,
}

// TierOfRow resolves the tier for a row letter.
func TierOfRow(row byte) (Tier, error) {
	tier, ok := rowTiers[row]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRow, string(row))
	}
	return tier, nil
}

// TierOf resolves the tier of a canonical seat id such as "K05".
func TierOf(seatID string) (Tier, error) {
	row, _, err := ParseSeatID(seatID)
	if err != nil {
		return "", err
	}
	return TierOfRow(row)
}

// Label is the heading used above the tier's rows.
func (t Tier) Label() string {
	switch t {
	case TierRecliner:
		return "RECLINERS"
	case TierPrimePlus:
		return "PRIME PLUS"
	case TierPrime:
		return "PRIME"
	case TierClassic:
		return "CLASSIC"
	default:
		return string(t)
	}
}

// PriceTable maps each tier to a unit price.
type PriceTable struct {
	Recliner  float64 `json:"recliner" koanf:"recliner" validate:"gte=0"`
	PrimePlus float64 `json:"primePlus" koanf:"prime_plus" validate:"gte=0"`
	Prime     float64 `json:"prime" koanf:"prime" validate:"gte=0"`
	Classic   float64 `json:"classic" koanf:"classic" validate:"gte=0"`
}

// DefaultPrices is used when a show does not carry its own table.
func DefaultPrices() PriceTable {
	return PriceTable{
		Recliner:  340,
		PrimePlus: 200,
		Prime:     170,
		Classic:   150,
	}
}

// IsZero reports whether no price has been set at all.
func (p PriceTable) IsZero() bool {
	return p == PriceTable{}
}

// OrDefault returns p, or the default table when p is empty.
func (p PriceTable) OrDefault() PriceTable {
	if p.IsZero() {
		return DefaultPrices()
	}
	return p
}

// Price returns the unit price for a tier. Unknown tiers cost nothing, but
// TierOf never produces one.
func (p PriceTable) Price(t Tier) float64 {
	switch t {
	case TierRecliner:
		return p.Recliner
	case TierPrimePlus:
		return p.PrimePlus
	case TierPrime:
		return p.Prime
	case TierClassic:
		return p.Classic
	default:
		return 0
	}
}

// Validate rejects negative prices.
func (p PriceTable) Validate() error {
	for _, t := range Tiers {
		if p.Price(t) < 0 {
			return fmt.Errorf("price for %s must not be negative", t)
		}
	}
	return nil
}
