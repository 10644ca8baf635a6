package models

// ========================= Domain Models =========================
// Minimal shapes shared across the matchmaking queue, match sessions,
// and the persistence layer.

// Principal is an authenticated identity. Account storage and token
// verification live in an external service; the coordinator only ever
// sees the resolved identity plus its pre-match rating.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
}

// Summary is the view of a principal that is safe to push to an
// opponent (no transport details, no fleet).
type Summary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
}

func (p Principal) Summary() Summary {
	return Summary{ID: p.ID, DisplayName: p.DisplayName, Rating: p.Rating}
}
