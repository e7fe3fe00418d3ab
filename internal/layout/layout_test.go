package layout

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/JonMunkholm/addrbook/internal/core"
)

// fixedMeasurer gives every rune half the font size.
type fixedMeasurer struct{}

func (fixedMeasurer) TextWidth(role Role, size float64, text string) float64 {
	return float64(utf8.RuneCountInString(text)) * size * 0.5
}

func sampleAddress() core.Address {
	return core.Address{
		ID:          7,
		FirstName:   "Jan",
		LastName:    "Kowalski",
		Street:      "ul. Długa",
		ApartmentNo: "3/4",
		City:        "Lublin",
		PostalCode:  "20-806",
	}
}

func numberedAddresses(n int) []core.Address {
	out := make([]core.Address, n)
	for i := range out {
		out[i] = core.Address{
			ID:         int64(i + 1),
			FirstName:  "Anna",
			LastName:   fmt.Sprintf("Nowak%02d", i+1),
			Street:     "Polna",
			City:       "Kraków",
			PostalCode: "30-001",
		}
	}
	return out
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// fragmentsWithText returns fragments whose text is one of want, in page
// order.
func fragmentsWithText(p Page, want []string) []Fragment {
	set := make(map[string]bool, len(want))
	for _, w := range want {
		set[w] = true
	}
	var out []Fragment
	for _, f := range p.Fragments {
		if set[f.Text] {
			out = append(out, f)
		}
	}
	return out
}
