package types

// Response is the uniform success envelope.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// CountResponse is used for sub-collection listings.
type CountResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    any  `json:"data"`
}

type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Pagination struct {
	Next     *PageRef `json:"next,omitempty"`
	Previous *PageRef `json:"previous,omitempty"`
}

// ListEnvelope is the response of every query-builder backed listing.
// Pagination is nil when neither neighbour page exists.
type ListEnvelope struct {
	Success    bool             `json:"success"`
	Count      int              `json:"count"`
	Pagination *Pagination      `json:"pagination,omitempty"`
	Data       []map[string]any `json:"data"`
}
