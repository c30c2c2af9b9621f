package model

import "fmt"

// Problem is the JSON error body returned by the REST API.
type Problem struct {
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail,omitempty"`
	EntityName string `json:"entityName,omitempty"`
	ErrorKey   string `json:"errorKey,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Error keys carried in Problem.ErrorKey.
const (
	ErrorKeyIDExists         = "idexists"
	ErrorKeyIDNull           = "idnull"
	ErrorKeyIDInvalid        = "idinvalid"
	ErrorKeyNotFound         = "notfound"
	ErrorKeyReferenceMissing = "referencenotfound"
	ErrorKeyRecipeNull       = "recipenull"
	ErrorKeyHasChildren      = "haschildren"
	ErrorKeyConcurrent       = "concurrentmodification"
	ErrorKeyValidation       = "validation"
	ErrorKeyInternal         = "internal"
)

func (p Problem) Error() string {
	switch {
	case p.Detail != "":
		return p.Detail
	case p.Title != "":
		return p.Title
	default:
		return fmt.Sprintf("request failed with status %d", p.Status)
	}
}
