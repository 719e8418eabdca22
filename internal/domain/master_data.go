package domain

// Zone is the top level of the organizational hierarchy.
type Zone struct {
	ID   string
	Name string
}

// Branch belongs to a zone.
type Branch struct {
	ID     string
	ZoneID string
	Name   string
}

// Line belongs to a branch.
type Line struct {
	ID       string
	BranchID string
	Name     string
}

// Farmer is the party a complaint is raised for.
type Farmer struct {
	ID       string
	Name     string
	Phone    string
	ZoneID   string
	BranchID string
	LineID   string
}
