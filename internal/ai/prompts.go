// prompts.go - Fixed instructions sent to the language models

package ai

import "fmt"

// ExtractionContract describes the exact output schema and the confidence
// rubric. It is plain text so every backend receives the same contract.
const ExtractionContract = `You are a medical prescription analyzer. Extract structured information from the given prescription text.
Focus on:
1. Medicine names
2. Dosage information
3. Frequency (morning, afternoon, evening, night)
4. Duration
5. Special instructions

Return the response in the following JSON format:
{
  "medicines": [
    {
      "name": "Medicine Name",
      "confidence": 95,
      "dosage": "Dosage Amount",
      "frequency": {
        "morning": boolean,
        "afternoon": boolean,
        "evening": boolean,
        "night": boolean
      },
      "duration": "Duration Period",
      "specialInstructions": "Any special instructions"
    }
  ],
  "patientInfo": {
    "name": "Patient Name if available",
    "age": "Patient Age if available",
    "gender": "Patient Gender if available"
  },
  "doctorInfo": {
    "name": "Doctor Name if available",
    "specialization": "Specialization if available"
  },
  "diagnosis": "Diagnosis if available",
  "date": "Prescription date if available"
}

"confidence" is a number between 0 and 100 telling how certain you are about that medicine's information:
- 90-100: clear, standard medicine name and complete information (name, dosage and duration all present)
- 70-89: slightly unclear writing but a recognizable medicine name
- below 70: unclear writing, ambiguous name, or missing information

Rules:
- Output JSON only, no markdown and no commentary.
- Use an empty string for any field that is not present. Never invent values.
- Set a frequency slot to true only when the prescription says so (e.g. "1-0-1" means morning and night).`

// BuildExtractionInput wraps raw OCR text for the extraction contract
func BuildExtractionInput(text string) string {
	return fmt.Sprintf("Analyze this prescription and provide the response in the exact JSON format specified above:\n\n%s", text)
}

// DrugSummaryInstruction is the generative drug-information fallback
const DrugSummaryInstruction = `You are a medical information assistant. Provide a concise summary about the medicine/drug named by the user.

Format your response as a JSON object with the following fields:
{
  "brand_name": "Brand name (if known)",
  "generic_name": "Generic name",
  "manufacturer": "Manufacturer (if known)",
  "active_ingredients": "Key active ingredients",
  "purpose": "Main medical use (1-2 sentences)",
  "warnings": "Key warnings (1-2 sentences)",
  "dosage_administration": "Standard dosage (1 sentence)",
  "pregnancy_risk": "Pregnancy category (if known)"
}

Guidelines:
1. Keep all responses brief and to the point
2. Focus on essential information only
3. Use simple, clear language
4. If unsure about any field, use null
5. Maximum 2 sentences per field
6. If the name is not a medicine you recognize, return {"unknown": true}`

// BuildDrugSummaryInput names the medicine to summarise
func BuildDrugSummaryInput(name string) string {
	return fmt.Sprintf("Medicine: %s", name)
}
