package model

// Candidate is a federal candidate from the campaign-finance API.
type Candidate struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Office      string `json:"office"` // H, S, or P
	Party       Party  `json:"party"`
	Cycles      []int  `json:"cycles,omitempty"`
}

// Committee is a campaign committee. A committee may be linked to zero or
// more candidates (leadership PACs link to none).
type Committee struct {
	CommitteeID  string   `json:"committee_id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	CandidateIDs []string `json:"candidate_ids,omitempty"`
}

// Contribution is one itemized receipt line from a committee filing.
// Keyed by (CommitteeID, Line, Cycle).
type Contribution struct {
	CommitteeID string  `json:"committee_id"`
	Line        string  `json:"line"`
	Cycle       int     `json:"cycle"`
	Amount      float64 `json:"amount"`
	Date        Date    `json:"date"`
	Contributor string  `json:"contributor"`
	Employer    string  `json:"employer,omitempty"`
	Occupation  string  `json:"occupation,omitempty"`
}
