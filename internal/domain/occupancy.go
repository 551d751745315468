package domain

// Occupancy is derived from ledger rows and never stored. Substitute counts
// are display-only and do not affect fullness.
type Occupancy struct {
	ActiveCount          int
	SubstituteCount      int
	GuestActiveCount     int
	GuestSubstituteCount int
}

// ResolveAdmission decides the class for one admission attempt given the
// active count observed at decision time. Pure; callers are responsible for
// making the read-decide-insert sequence atomic.
func ResolveAdmission(activeCount, capacity int) AdmissionClass {
	if activeCount >= capacity {
		return AdmissionSubstitute
	}
	return AdmissionActive
}

// ComputeOccupancy partitions both participant kinds by admission class.
// The result does not depend on input order.
func ComputeOccupancy(participants []Participant, guests []GuestParticipant) Occupancy {
	var o Occupancy
	for _, p := range participants {
		if p.Class == AdmissionSubstitute {
			o.SubstituteCount++
		} else {
			o.ActiveCount++
		}
	}
	for _, g := range guests {
		if g.Class == AdmissionSubstitute {
			o.GuestSubstituteCount++
		} else {
			o.GuestActiveCount++
		}
	}
	return o
}

// TotalActive is the fullness numerator: active registered plus active
// guests.
func (o Occupancy) TotalActive() int {
	return o.ActiveCount + o.GuestActiveCount
}

func (o Occupancy) IsFull(capacity int) bool {
	return o.TotalActive() >= capacity
}
