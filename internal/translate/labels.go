// labels.go - Static UI labels, grouped per screen

package translate

// Screen names
const (
	ScreenSchedule = "schedule"
	ScreenMedicine = "medicine"
	ScreenPatient  = "patient"
	ScreenDrugInfo = "drug_info"
	ScreenStores   = "stores"
)

// DefaultLabels are the English labels of every screen. Each screen is
// translated as one independent group.
var DefaultLabels = map[string]map[string]string{
	ScreenSchedule: {
		"title":       "Medication Schedule",
		"morning":     "Morning",
		"afternoon":   "Afternoon",
		"evening":     "Evening",
		"night":       "Night",
		"unscheduled": "Unscheduled",
		"disclaimer":  "This schedule is generated automatically. Always confirm with your doctor or pharmacist.",
	},
	ScreenMedicine: {
		"name":                "Medicine",
		"dosage":              "Dosage",
		"duration":            "Duration",
		"specialInstructions": "Special Instructions",
		"confidence":          "Confidence",
	},
	ScreenPatient: {
		"patient":        "Patient",
		"doctor":         "Doctor",
		"age":            "Age",
		"gender":         "Gender",
		"specialization": "Specialization",
		"diagnosis":      "Diagnosis",
		"date":           "Date",
	},
	ScreenDrugInfo: {
		"brand_name":            "Brand Name",
		"generic_name":          "Generic Name",
		"manufacturer":          "Manufacturer",
		"active_ingredients":    "Active Ingredients",
		"purpose":               "Purpose",
		"warnings":              "Warnings",
		"dosage_administration": "Dosage and Administration",
		"pregnancy_risk":        "Pregnancy Risk",
		"not_found":             "No information found for this medicine.",
	},
	ScreenStores: {
		"title":     "Jan Aushadhi Kendras near you",
		"pin_code":  "PIN Code",
		"alternate": "Generic Alternatives",
		"not_found": "No stores found for this location.",
	},
}

func copyLabels(src map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(src))
	for screen, labels := range src {
		m := make(map[string]string, len(labels))
		for k, v := range labels {
			m[k] = v
		}
		out[screen] = m
	}
	return out
}
