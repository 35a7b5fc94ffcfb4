package entity

type Player struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Symbol Symbol `json:"symbol"`
	Active bool   `json:"active"`
}

// Index is the 0-based slot of the player in the turn order.
func (that *Player) Index() int {
	return that.ID - 1
}

// PlayerID converts a 0-based slot into a 1-based player id.
func PlayerID(index int) int {
	return index + 1
}
