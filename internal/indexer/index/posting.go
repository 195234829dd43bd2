package index

// Posting is the position list of one term inside a single document.
type Posting struct {
	Term      string `json:"term"`
	Frequency int    `json:"frequency"`
	Positions []int  `json:"positions"`
}

// PostingList is an ordered run of postings, ascending by term.
type PostingList []Posting

// DocStats summarises an index for logging and health reporting.
type DocStats struct {
	Name       string `json:"name"`
	TokenCount int    `json:"token_count"`
	Terms      int    `json:"terms"`
	Height     int    `json:"height"`
}
