// prescription.go - Prescription record produced by one pipeline run

package models

// Slot names one of the four fixed times of day a medicine can be scheduled for
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotEvening   Slot = "evening"
	SlotNight     Slot = "night"
)

// Slots lists the daily slots in display order
var Slots = []Slot{SlotMorning, SlotAfternoon, SlotEvening, SlotNight}

// Frequency marks the daily slots a medicine is taken in
type Frequency struct {
	Morning   bool `json:"morning" bson:"morning"`
	Afternoon bool `json:"afternoon" bson:"afternoon"`
	Evening   bool `json:"evening" bson:"evening"`
	Night     bool `json:"night" bson:"night"`
}

// IsEmpty reports whether no slot is set
func (f Frequency) IsEmpty() bool {
	return !f.Morning && !f.Afternoon && !f.Evening && !f.Night
}

// Has reports whether the given slot is set
func (f Frequency) Has(slot Slot) bool {
	switch slot {
	case SlotMorning:
		return f.Morning
	case SlotAfternoon:
		return f.Afternoon
	case SlotEvening:
		return f.Evening
	case SlotNight:
		return f.Night
	}
	return false
}

// Set returns a copy of f with the given slot enabled
func (f Frequency) Set(slot Slot) Frequency {
	switch slot {
	case SlotMorning:
		f.Morning = true
	case SlotAfternoon:
		f.Afternoon = true
	case SlotEvening:
		f.Evening = true
	case SlotNight:
		f.Night = true
	}
	return f
}

// AllSlots is the "taken throughout the day" frequency
func AllSlots() Frequency {
	return Frequency{Morning: true, Afternoon: true, Evening: true, Night: true}
}

// Medicine is a single extracted prescription line
type Medicine struct {
	Name                string    `json:"name" bson:"name"`
	Confidence          *float64  `json:"confidence,omitempty" bson:"confidence,omitempty"` // 0-100, display only
	Dosage              string    `json:"dosage" bson:"dosage"`
	Frequency           Frequency `json:"frequency" bson:"frequency"`
	Duration            string    `json:"duration" bson:"duration"`
	SpecialInstructions string    `json:"specialInstructions,omitempty" bson:"special_instructions,omitempty"`
}

// Clone returns a deep copy of the medicine
func (m Medicine) Clone() Medicine {
	if m.Confidence != nil {
		c := *m.Confidence
		m.Confidence = &c
	}
	return m
}

// HasCompleteFields reports whether name, dosage and duration are all present
func (m Medicine) HasCompleteFields() bool {
	return m.Name != "" && m.Dosage != "" && m.Duration != ""
}

// PatientInfo holds the optional patient header of a prescription
type PatientInfo struct {
	Name   string `json:"name,omitempty" bson:"name,omitempty"`
	Age    string `json:"age,omitempty" bson:"age,omitempty"`
	Gender string `json:"gender,omitempty" bson:"gender,omitempty"`
}

// DoctorInfo holds the optional prescriber header of a prescription
type DoctorInfo struct {
	Name           string `json:"name,omitempty" bson:"name,omitempty"`
	Specialization string `json:"specialization,omitempty" bson:"specialization,omitempty"`
}

// PrescriptionRecord is created once per successful pipeline run and is never
// mutated afterwards; derived data is produced as a new record.
type PrescriptionRecord struct {
	Medicines   []Medicine  `json:"medicines" bson:"medicines"`
	PatientInfo PatientInfo `json:"patientInfo" bson:"patient_info"`
	DoctorInfo  DoctorInfo  `json:"doctorInfo" bson:"doctor_info"`
	Diagnosis   string      `json:"diagnosis,omitempty" bson:"diagnosis,omitempty"`
	Date        string      `json:"date,omitempty" bson:"date,omitempty"`
}

// Clone returns a deep copy of the record
func (r *PrescriptionRecord) Clone() *PrescriptionRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Medicines = make([]Medicine, len(r.Medicines))
	for i, m := range r.Medicines {
		out.Medicines[i] = m.Clone()
	}
	return &out
}

// Schedule groups medicines by daily slot for rendering. A medicine taken in
// several slots appears in each of them.
type Schedule struct {
	Morning     []Medicine `json:"morning"`
	Afternoon   []Medicine `json:"afternoon"`
	Evening     []Medicine `json:"evening"`
	Night       []Medicine `json:"night"`
	Unscheduled []Medicine `json:"unscheduled"`
}

// Add appends m under slot
func (s *Schedule) Add(slot Slot, m Medicine) {
	switch slot {
	case SlotMorning:
		s.Morning = append(s.Morning, m)
	case SlotAfternoon:
		s.Afternoon = append(s.Afternoon, m)
	case SlotEvening:
		s.Evening = append(s.Evening, m)
	case SlotNight:
		s.Night = append(s.Night, m)
	}
}

// ForSlot returns the medicines grouped under slot
func (s *Schedule) ForSlot(slot Slot) []Medicine {
	switch slot {
	case SlotMorning:
		return s.Morning
	case SlotAfternoon:
		return s.Afternoon
	case SlotEvening:
		return s.Evening
	case SlotNight:
		return s.Night
	}
	return nil
}
