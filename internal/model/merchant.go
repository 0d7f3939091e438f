package model

// Merchant is a directory entry mapping normalized statement text to a
// known merchant. The directory is admin data: read-only to the
// classification engine.
type Merchant struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Aliases              []string `json:"aliases,omitempty"`
	DefaultSubcategoryID int      `json:"defaultSubcategoryId"`
	// ConfidenceWeight (0.00-1.00) is how reliable a match against this
	// merchant is. It becomes the classification confidence on a hit.
	ConfidenceWeight float64 `json:"confidenceWeight"`
}
