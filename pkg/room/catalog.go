package room

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is an ordered, read-only set of rooms addressed by 1-based index.
type Catalog struct {
	rooms []Record
}

// catalogFile is the on-disk YAML layout.
type catalogFile struct {
	Rooms []Record `yaml:"rooms"`
}

// NewCatalog builds a catalog from records in index order.
// Records without an image get the default static path for their index.
func NewCatalog(records []Record) (*Catalog, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog must contain at least one room")
	}

	rooms := make([]Record, len(records))
	for i, rec := range records {
		if rec.Image == "" {
			rec.Image = ImagePath(i + 1)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("room %d: %w", i+1, err)
		}
		rooms[i] = rec
	}

	return &Catalog{rooms: rooms}, nil
}

// LoadCatalog reads a YAML catalog file:
//
//	rooms:
//	  - name: West
//	    description: ...
//	    image: /static/img/1.jpg
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return NewCatalog(file.Rooms)
}

// Get returns the room at the 1-based index.
func (c *Catalog) Get(index int) (Record, error) {
	if index < 1 || index > len(c.rooms) {
		return Record{}, fmt.Errorf("%w: index %d (have 1..%d)", ErrNotFound, index, len(c.rooms))
	}
	return c.rooms[index-1], nil
}

// Len returns the number of rooms.
func (c *Catalog) Len() int {
	return len(c.rooms)
}

// DefaultCatalog returns the built-in Campus North tour.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(campusNorth)
	if err != nil {
		panic(err)
	}
	return c
}

var campusNorth = []Record{
	{
		Name:        "West",
		Description: "Welcome to Campus North - this interactive tour should show you all there is to see from this one spot in which we are now stood. As we face west we are confronted with a door which could have been used by King George during his brief tenure - it wasn't, but it could have done!",
	},
	{
		Name:        "South-West",
		Description: "As we turn the South West we can see some magnificent bookshelves. This lovely example of Victorian woodworking can store up to 16 bottles of water!",
	},
	{
		Name:        "South",
		Description: "We turn to the south to be confronted with radiator. Legend has it that you can cook a sausage over this radiator, in fact many people in Campus North have tried but, in living memory at least, all have failed.",
	},
	{
		Name:        "South-East",
		Description: "The south easterly direction of this spot of Campus North shows use the earliest known cave paintings in Newcastle, many are dotted throughout the building. This one is believed to be a depiction of the artists Mother-In-Law!",
	},
	{
		Name:        "East",
		Description: "To the east of our fixed position we can see the entrance to the famous mushroom caves. Many budding entrepreneurs wander into the caves to pick mushrooms to garnish their ramen. It is rumoured that some entrepreneurs lurk there for days down there, waiting for their next great idea before resurfacing.",
	},
	{
		Name:        "North-East",
		Description: "The north easterly view is one of the dining area. This great hall of food production, while empty at the moment, can feed up to 4000 people in a single day. The cutlery however can only serve 6!",
	},
	{
		Name:        "North",
		Description: "Facing North we are reminded of the direction from which Campus North takes it's name. An otherwise unremarkable direction, it holds the highest honour on most maps, always pointing towards Campus North.",
	},
	{
		Name:        "North-West",
		Description: "Facing north west we can see a tattered parchment loftily stuck to one of the many supporting pillars in Campus North. A wise old man once told me that this parchment could lead to the greatest treasure he had ever known. Sadly, upon inspection it was just the wifi password!",
	},
}
