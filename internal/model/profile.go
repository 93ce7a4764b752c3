package model

// Profile is the caller's own record enriched with the derived BMI values.
// IMC and Diagnosis are computed, never stored; they are omitted when weight
// or height is missing or height is zero.
type Profile struct {
	User
	IMC       *float64 `json:"imc,omitempty"`
	Diagnosis string   `json:"diagnosis,omitempty"`
}
