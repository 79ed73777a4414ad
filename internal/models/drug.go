// drug.go - Lookup results keyed off an extracted medicine name

package models

// DrugSource tags which lookup tier produced a DrugInfo
type DrugSource string

const (
	SourceAuthoritative DrugSource = "authoritative" // openFDA label database
	SourceGenerated     DrugSource = "generated"     // LLM summary
	SourceFallback      DrugSource = "fallback"      // built-in reference table
)

// DrugInfo is an ephemeral drug-information record, fetched per view
type DrugInfo struct {
	BrandName            string     `json:"brand_name,omitempty" bson:"brand_name,omitempty"`
	GenericName          string     `json:"generic_name,omitempty" bson:"generic_name,omitempty"`
	Manufacturer         string     `json:"manufacturer,omitempty" bson:"manufacturer,omitempty"`
	ActiveIngredients    string     `json:"active_ingredients,omitempty" bson:"active_ingredients,omitempty"`
	Purpose              string     `json:"purpose,omitempty" bson:"purpose,omitempty"`
	Warnings             string     `json:"warnings,omitempty" bson:"warnings,omitempty"`
	DosageAdministration string     `json:"dosage_administration,omitempty" bson:"dosage_administration,omitempty"`
	PregnancyRisk        string     `json:"pregnancy_risk,omitempty" bson:"pregnancy_risk,omitempty"`
	Source               DrugSource `json:"source" bson:"source"`
}

// TextFields returns pointers to the free-text fields, in a stable order
func (d *DrugInfo) TextFields() []*string {
	return []*string{
		&d.BrandName,
		&d.GenericName,
		&d.Manufacturer,
		&d.ActiveIngredients,
		&d.Purpose,
		&d.Warnings,
		&d.DosageAdministration,
		&d.PregnancyRisk,
	}
}

// DrugInteractions holds the openFDA interaction sections for a drug
type DrugInteractions struct {
	DrugInteractions  string `json:"drug_interactions,omitempty"`
	Contraindications string `json:"contraindications,omitempty"`
	BoxedWarnings     string `json:"boxed_warnings,omitempty"`
}

// AdverseEvent is one openFDA adverse-event report summary
type AdverseEvent struct {
	Reactions  []string `json:"reaction"`
	Serious    string   `json:"severity,omitempty"`
	Outcome    string   `json:"outcome,omitempty"`
	ReportDate string   `json:"report_date,omitempty"`
}

// GenericAlternative is a Jan Aushadhi generic product matching a medicine
type GenericAlternative struct {
	MedicineID   string `json:"medicine_id"`
	GenericName  string `json:"generic_name"`
	CompanyName  string `json:"company_name,omitempty"`
	MRP          string `json:"mrp,omitempty"`
	UnitSize     string `json:"unit_size,omitempty"`
	PerUnitMRP   string `json:"per_unit_mrp,omitempty"`
	SavingsPerc  string `json:"savings_percent,omitempty"`
	SavingAmount string `json:"saving_amount,omitempty"`
	ItemCode     string `json:"item_code,omitempty"`
}

// Store is a dispensing store (Jan Aushadhi Kendra)
type Store struct {
	SrNo         string  `json:"sr_no,omitempty" bson:"sr_no,omitempty"`
	KendraCode   string  `json:"kendra_code" bson:"kendra_code"`
	Name         string  `json:"name,omitempty" bson:"name,omitempty"`
	OwnerName    string  `json:"owner_name,omitempty" bson:"owner_name,omitempty"`
	ContactNo    string  `json:"contact_no,omitempty" bson:"contact_no,omitempty"`
	Address      string  `json:"address,omitempty" bson:"address,omitempty"`
	State        string  `json:"state" bson:"state"`
	District     string  `json:"district" bson:"district"`
	PinCode      string  `json:"pin_code" bson:"pin_code"`
	DistanceKm   float64 `json:"distance_km,omitempty" bson:"-"`
	WorkingHours string  `json:"working_hours,omitempty" bson:"working_hours,omitempty"`
}
