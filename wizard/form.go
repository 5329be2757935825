// Package wizard holds the four step booking form as an immutable value and
// the pure functions that move it between steps.
package wizard

import (
	"strings"

	"repairhub-server/models"
)

// Form is the data collected across all steps. Every action returns a new
// Form; slices are never shared between the old and the new value.
type Form struct {
	CategoryID             uint                   `json:"category_id"`
	BrandID                uint                   `json:"brand_id"`
	Model                  string                 `json:"model"`
	CustomModel            bool                   `json:"custom_model"`
	Faults                 []models.FaultSnapshot `json:"faults"`
	CustomFaultDescription string                 `json:"custom_fault_description"`
	Images                 []string               `json:"images"`

	ServiceType    models.ServiceType `json:"service_type"`
	AgentID        uint               `json:"agent_id"`
	Street         string             `json:"street"`
	Pincode        string             `json:"pincode"`
	CityID         uint               `json:"city_id"`
	CollectionDate string             `json:"collection_date"`
	CollectionTime string             `json:"collection_time"`
	DeliveryDate   string             `json:"delivery_date"`
	DeliveryTime   string             `json:"delivery_time"`

	DurationType string `json:"duration_type"`
	PromoCode    string `json:"promo_code"`

	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

func (f Form) clone() Form {
	out := f
	if f.Faults != nil {
		out.Faults = append([]models.FaultSnapshot(nil), f.Faults...)
	}
	if f.Images != nil {
		out.Images = append([]string(nil), f.Images...)
	}
	return out
}

// HasFault reports whether the fault id is selected.
func (f Form) HasFault(id uint) bool {
	for _, s := range f.Faults {
		if s.ID == id {
			return true
		}
	}
	return false
}

// FaultIDs returns the selected fault ids in selection order. A fault listed
// more than once is returned once.
func (f Form) FaultIDs() []uint {
	ids := make([]uint, 0, len(f.Faults))
	seen := make(map[uint]bool, len(f.Faults))
	for _, s := range f.Faults {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		ids = append(ids, s.ID)
	}
	return ids
}

// Action transforms a form into its successor.
type Action interface {
	apply(Form) Form
}

// Apply runs the actions in order against a copy of f.
func Apply(f Form, actions ...Action) Form {
	out := f.clone()
	for _, a := range actions {
		out = a.apply(out)
	}
	return out
}

// SelectCategory sets the category and clears everything that depended on it.
type SelectCategory struct{ CategoryID uint }

func (a SelectCategory) apply(f Form) Form {
	if f.CategoryID != a.CategoryID {
		f.BrandID = 0
		f.Model = ""
		f.CustomModel = false
		f.Faults = nil
	}
	f.CategoryID = a.CategoryID
	return f
}

// SelectBrand sets the brand and clears the model and faults when it changes.
type SelectBrand struct{ BrandID uint }

func (a SelectBrand) apply(f Form) Form {
	if f.BrandID != a.BrandID {
		f.Model = ""
		f.CustomModel = false
		f.Faults = nil
	}
	f.BrandID = a.BrandID
	return f
}

// SelectModel picks a catalog model, or a free text one when Custom is set.
type SelectModel struct {
	Model  string
	Custom bool
}

func (a SelectModel) apply(f Form) Form {
	model := strings.TrimSpace(a.Model)
	if f.Model != model || f.CustomModel != a.Custom {
		f.Faults = nil
	}
	f.Model = model
	f.CustomModel = a.Custom
	return f
}

// ToggleFault adds the fault when absent and removes it when present.
type ToggleFault struct{ Fault models.FaultSnapshot }

func (a ToggleFault) apply(f Form) Form {
	if f.HasFault(a.Fault.ID) {
		return DeselectFault{ID: a.Fault.ID}.apply(f)
	}
	f.Faults = append(f.Faults, a.Fault)
	return f
}

// SelectFault adds the fault; selecting an already selected fault is a no-op.
type SelectFault struct{ Fault models.FaultSnapshot }

func (a SelectFault) apply(f Form) Form {
	if f.HasFault(a.Fault.ID) {
		return f
	}
	f.Faults = append(f.Faults, a.Fault)
	return f
}

type DeselectFault struct{ ID uint }

func (a DeselectFault) apply(f Form) Form {
	kept := f.Faults[:0:0]
	for _, s := range f.Faults {
		if s.ID != a.ID {
			kept = append(kept, s)
		}
	}
	f.Faults = kept
	return f
}

type DescribeFault struct{ Text string }

func (a DescribeFault) apply(f Form) Form {
	f.CustomFaultDescription = strings.TrimSpace(a.Text)
	return f
}

// AddImage appends an uploaded image reference; duplicates are ignored.
type AddImage struct{ URL string }

func (a AddImage) apply(f Form) Form {
	for _, u := range f.Images {
		if u == a.URL {
			return f
		}
	}
	f.Images = append(f.Images, a.URL)
	return f
}

type RemoveImage struct{ URL string }

func (a RemoveImage) apply(f Form) Form {
	kept := f.Images[:0:0]
	for _, u := range f.Images {
		if u != a.URL {
			kept = append(kept, u)
		}
	}
	f.Images = kept
	return f
}

// SelectServiceType switches the fulfilment channel. Postal bookings never
// carry an agent at submission.
type SelectServiceType struct{ ServiceType models.ServiceType }

func (a SelectServiceType) apply(f Form) Form {
	f.ServiceType = a.ServiceType
	if a.ServiceType == models.ServicePostal {
		f.AgentID = 0
	}
	return f
}

type SelectAgent struct{ AgentID uint }

func (a SelectAgent) apply(f Form) Form {
	f.AgentID = a.AgentID
	return f
}

type SetAddress struct {
	Street  string
	Pincode string
	CityID  uint
}

func (a SetAddress) apply(f Form) Form {
	f.Street = strings.TrimSpace(a.Street)
	f.Pincode = strings.TrimSpace(a.Pincode)
	f.CityID = a.CityID
	return f
}

type SetCollection struct{ Date, Time string }

func (a SetCollection) apply(f Form) Form {
	f.CollectionDate = a.Date
	f.CollectionTime = a.Time
	return f
}

type SetDelivery struct{ Date, Time string }

func (a SetDelivery) apply(f Form) Form {
	f.DeliveryDate = a.Date
	f.DeliveryTime = a.Time
	return f
}

type SelectDuration struct{ Name string }

func (a SelectDuration) apply(f Form) Form {
	f.DurationType = a.Name
	return f
}

type SetPromoCode struct{ Code string }

func (a SetPromoCode) apply(f Form) Form {
	f.PromoCode = strings.TrimSpace(a.Code)
	return f
}

type SelectPayment struct{ Method models.PaymentMethod }

func (a SelectPayment) apply(f Form) Form {
	f.PaymentMethod = a.Method
	return f
}
