package core

// address.go defines the address record, the insert payload, and the partial
// update shape forwarded to the persistence store.

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no record has the requested id.
var ErrNotFound = errors.New("address not found")

// Address is a stored address-book entry.
//
// ApartmentNo and Description are empty when absent.
type Address struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Street      string    `json:"street"`
	ApartmentNo string    `json:"apartment_no,omitempty"`
	City        string    `json:"city"`
	PostalCode  string    `json:"postal_code"`
	Description string    `json:"description,omitempty"`
	LabelMarked bool      `json:"label_marked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewAddress is the payload for inserting a record. Identity and timestamps
// are always assigned by the store.
type NewAddress struct {
	FirstName   string
	LastName    string
	Street      string
	ApartmentNo string
	City        string
	PostalCode  string
	Description string
	LabelMarked bool
}

// AddressPatch describes a partial update. Every field defaults to Unset,
// which leaves the stored value untouched.
type AddressPatch struct {
	FirstName   Field[string]
	LastName    Field[string]
	Street      Field[string]
	ApartmentNo Field[string]
	City        Field[string]
	PostalCode  Field[string]
	Description Field[string]
	LabelMarked Field[bool]
}

// Apply returns a copy of a with the patch applied. Cleared fields take the
// zero value.
func (p AddressPatch) Apply(a Address) Address {
	a.FirstName = p.FirstName.Or(a.FirstName)
	a.LastName = p.LastName.Or(a.LastName)
	a.Street = p.Street.Or(a.Street)
	a.ApartmentNo = p.ApartmentNo.Or(a.ApartmentNo)
	a.City = p.City.Or(a.City)
	a.PostalCode = p.PostalCode.Or(a.PostalCode)
	a.Description = p.Description.Or(a.Description)
	a.LabelMarked = p.LabelMarked.Or(a.LabelMarked)
	return a
}

// IsEmpty reports whether the patch changes nothing.
func (p AddressPatch) IsEmpty() bool {
	return p.FirstName.IsUnset() && p.LastName.IsUnset() && p.Street.IsUnset() &&
		p.ApartmentNo.IsUnset() && p.City.IsUnset() && p.PostalCode.IsUnset() &&
		p.Description.IsUnset() && p.LabelMarked.IsUnset()
}

// AddressStore is the persistence collaborator used by the import pipeline,
// the exporters and the print endpoints.
//
// FetchAll returns every record ordered by last name, first name, then id.
// Get and Update return ErrNotFound for an unknown id.
type AddressStore interface {
	FetchAll(ctx context.Context) ([]Address, error)
	Get(ctx context.Context, id int64) (Address, error)
	Insert(ctx context.Context, rec NewAddress) (Address, error)
	Update(ctx context.Context, id int64, patch AddressPatch) (Address, error)
}

// LabelMarked filters records down to those selected for label printing,
// keeping their order.
func LabelMarked(records []Address) []Address {
	out := make([]Address, 0, len(records))
	for _, r := range records {
		if r.LabelMarked {
			out = append(out, r)
		}
	}
	return out
}
