package cart

import "github.com/shopspring/decimal"

// Line is one cart entry as the backend serialises it.
type Line struct {
	ID          int             `json:"id"`
	ProductID   int             `json:"product"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image,omitempty"`
}

func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is the cart in backend order. It is replaced wholesale, never
// patched.
type Snapshot []Line

// NewSnapshot copies lines, dropping entries whose quantity fell to zero.
func NewSnapshot(lines []Line) Snapshot {
	out := make(Snapshot, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

func (s Snapshot) Empty() bool { return len(s) == 0 }

func (s Snapshot) TotalItems() int {
	n := 0
	for _, l := range s {
		n += l.Quantity
	}
	return n
}

func (s Snapshot) Find(lineID int) (Line, bool) {
	for _, l := range s {
		if l.ID == lineID {
			return l, true
		}
	}
	return Line{}, false
}
