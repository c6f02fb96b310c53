package gossip

// Identifier distinguishes gossip streams sharing one shell.
//
// Identifiers compare equal if and only if their string forms are
// equal, so any domain identifier normalises to its string form.
type Identifier struct {
	id string
}

func NewIdentifier(id string) Identifier {
	return Identifier{id: id}
}

func (i Identifier) String() string {
	return i.id
}
