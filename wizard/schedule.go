package wizard

import (
	"fmt"
	"time"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

const dateLayout = "2006-01-02"

const (
	firstSlotMinutes = 9 * 60
	lastSlotMinutes  = 18 * 60
	slotStepMinutes  = 30
)

// TimeSlots returns every half hour from 09:00 to 18:00 inclusive.
func TimeSlots() []string {
	slots := make([]string, 0, (lastSlotMinutes-firstSlotMinutes)/slotStepMinutes+1)
	for m := firstSlotMinutes; m <= lastSlotMinutes; m += slotStepMinutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

func IsTimeSlot(s string) bool {
	for _, slot := range TimeSlots() {
		if slot == s {
			return true
		}
	}
	return false
}

// ScheduleWindow returns the selectable dates, today through today+days.
func ScheduleWindow(today time.Time, days int) []string {
	start := midnight(today)
	out := make([]string, 0, days+1)
	for i := 0; i <= days; i++ {
		out = append(out, start.AddDate(0, 0, i).Format(dateLayout))
	}
	return out
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ValidateSchedule checks collection and delivery against the date window
// and the slot lattice. It only applies to collection_delivery bookings.
func ValidateSchedule(f Form, today time.Time, days int) error {
	if f.ServiceType != models.ServiceCollectionDelivery {
		return nil
	}
	start := midnight(today)
	end := start.AddDate(0, 0, days)

	parse := func(label, value string) (time.Time, error) {
		d, err := time.ParseInLocation(dateLayout, value, today.Location())
		if err != nil {
			return time.Time{}, apperr.Validation("%s date must be YYYY-MM-DD", label)
		}
		if d.Before(start) || d.After(end) {
			return time.Time{}, apperr.Validation("%s date must be between %s and %s",
				label, start.Format(dateLayout), end.Format(dateLayout))
		}
		return d, nil
	}

	collection, err := parse("collection", f.CollectionDate)
	if err != nil {
		return err
	}
	delivery, err := parse("delivery", f.DeliveryDate)
	if err != nil {
		return err
	}
	if !IsTimeSlot(f.CollectionTime) {
		return apperr.Validation("collection time %q is not an available slot", f.CollectionTime)
	}
	if !IsTimeSlot(f.DeliveryTime) {
		return apperr.Validation("delivery time %q is not an available slot", f.DeliveryTime)
	}
	if delivery.Before(collection) {
		return apperr.Validation("delivery date cannot be before collection date")
	}
	return nil
}
