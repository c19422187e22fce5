package dto

// SetSettingRequest writes one scoped setting value.
type SetSettingRequest struct {
	Value any `json:"value" binding:"required"`
}

// ValidateValueRequest checks a candidate value against a definition.
type ValidateValueRequest struct {
	Value any `json:"value"`
}

// ValidateValueResponse reports the validation outcome.
type ValidateValueResponse struct {
	Valid bool `json:"valid"`
}
