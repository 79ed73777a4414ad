// schedule.go - Time-of-day slot derivation

package schedule

import (
	"regexp"
	"strings"

	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

// slotKeywords maps free-text keywords to slots. Matching is on whole words
// so "am" never matches inside "amoxicillin". The clock forms accept a
// leading digit and dotted spellings: "8am", "8 a.m.", "9 p.m".
var slotKeywords = []struct {
	slot models.Slot
	re   *regexp.Regexp
}{
	{models.SlotMorning, regexp.MustCompile(`(?i)(?:^|[^a-z])(?:morning|a\.?m)\b`)},
	{models.SlotAfternoon, regexp.MustCompile(`(?i)\b(afternoon|noon)\b`)},
	{models.SlotEvening, regexp.MustCompile(`(?i)(?:^|[^a-z])(?:evening|p\.?m)\b`)},
	{models.SlotNight, regexp.MustCompile(`(?i)\b(night|bedtime)\b`)},
}

// DeriveFrequency returns the slots a medicine is taken in. Frequency set by
// the model is returned unchanged. Otherwise the free-text fields are scanned
// for time-of-day keywords, and when none match every slot is set: a medicine
// is assumed to be taken throughout the day rather than left unscheduled.
func DeriveFrequency(m models.Medicine) models.Frequency {
	if !m.Frequency.IsEmpty() {
		return m.Frequency
	}

	if f := scanKeywords(m); !f.IsEmpty() {
		return f
	}

	return models.AllSlots()
}

func scanKeywords(m models.Medicine) models.Frequency {
	text := strings.Join([]string{m.SpecialInstructions, m.Dosage, m.Duration}, " ")

	var f models.Frequency
	for _, kw := range slotKeywords {
		if kw.re.MatchString(text) {
			f = f.Set(kw.slot)
		}
	}
	return f
}

// Derive returns a new record whose medicines all carry derived frequencies.
// The input record is not modified.
func Derive(record *models.PrescriptionRecord) *models.PrescriptionRecord {
	out := record.Clone()
	if out == nil {
		return nil
	}
	for i := range out.Medicines {
		out.Medicines[i].Frequency = DeriveFrequency(out.Medicines[i])
	}
	return out
}

// Build groups medicines by slot for rendering. A medicine with no slot set
// goes to Unscheduled so it is never silently dropped.
func Build(record *models.PrescriptionRecord) models.Schedule {
	s := models.Schedule{
		Morning:     []models.Medicine{},
		Afternoon:   []models.Medicine{},
		Evening:     []models.Medicine{},
		Night:       []models.Medicine{},
		Unscheduled: []models.Medicine{},
	}
	if record == nil {
		return s
	}

	for _, m := range record.Medicines {
		if m.Frequency.IsEmpty() {
			s.Unscheduled = append(s.Unscheduled, m)
			continue
		}
		for _, slot := range models.Slots {
			if m.Frequency.Has(slot) {
				s.Add(slot, m)
			}
		}
	}
	return s
}
