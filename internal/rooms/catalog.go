package rooms

// Catalog is the fixed, ordered set of rooms for a game session. It is
// never mutated after construction; accessors hand out deep copies.
type Catalog struct {
	title string
	rooms []Room
	index map[string]int
}

func NewCatalog(title string, rooms []Room) (*Catalog, error) {
	f := File{Kind: CatalogKind, SchemaVersion: SupportedSchemaVersion, Title: title, Rooms: rooms}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return newCatalog(f), nil
}

func newCatalog(f File) *Catalog {
	c := &Catalog{
		title: f.Title,
		rooms: make([]Room, len(f.Rooms)),
		index: make(map[string]int, len(f.Rooms)),
	}
	for i, r := range f.Rooms {
		c.rooms[i] = r.Clone()
		c.index[r.ID] = i
	}
	return c
}

func (c *Catalog) Title() string { return c.title }

func (c *Catalog) Len() int { return len(c.rooms) }

func (c *Catalog) Rooms() []Room {
	out := make([]Room, len(c.rooms))
	for i, r := range c.rooms {
		out[i] = r.Clone()
	}
	return out
}

func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.rooms))
	for i, r := range c.rooms {
		ids[i] = r.ID
	}
	return ids
}

func (c *Catalog) Room(id string) (Room, bool) {
	i, ok := c.index[id]
	if !ok {
		return Room{}, false
	}
	return c.rooms[i].Clone(), true
}

// Index reports the position of id in catalog order, or -1.
func (c *Catalog) Index(id string) int {
	i, ok := c.index[id]
	if !ok {
		return -1
	}
	return i
}

// NextID returns the room after id. ok is false for the last room and for
// ids not in the catalog.
func (c *Catalog) NextID(id string) (string, bool) {
	i, ok := c.index[id]
	if !ok || i >= len(c.rooms)-1 {
		return "", false
	}
	return c.rooms[i+1].ID, true
}
