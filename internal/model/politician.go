package model

// PoliticianID is the disclosure API's stable identifier for a member
// of Congress (e.g. "P000197").
type PoliticianID string

// Chamber identifies which chamber of Congress a politician sits in.
type Chamber string

const (
	ChamberHouse  Chamber = "house"
	ChamberSenate Chamber = "senate"
)

// Party is a political party affiliation as reported upstream.
type Party string

const (
	PartyDemocrat    Party = "democrat"
	PartyRepublican  Party = "republican"
	PartyIndependent Party = "independent"
	PartyOther       Party = "other"
)

// Politician is a member of Congress as reported by the disclosure API.
type Politician struct {
	ID        PoliticianID     `json:"id"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Chamber   Chamber          `json:"chamber"`
	Party     Party            `json:"party"`
	Gender    string           `json:"gender,omitempty"`
	State     string           `json:"state,omitempty"`
	Active    bool             `json:"active"`
	Stats     *PoliticianStats `json:"stats,omitempty"`
}

// PoliticianStats is the upstream's trading activity snapshot. It is
// derived data reported alongside the politician record, never computed
// locally.
type PoliticianStats struct {
	CountTrades    int   `json:"count_trades"`
	CountIssuers   int   `json:"count_issuers"`
	Volume         int64 `json:"volume"`
	DateLastTraded Date  `json:"date_last_traded"`
}

// FullName returns "First Last".
func (p Politician) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}
