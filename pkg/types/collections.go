package types

// Standard collection names.
const (
	CollectionAccounts    = "accounts"
	CollectionDiaries     = "diaries"
	CollectionGames       = "games"
	CollectionFoods       = "foods"
	CollectionIngredients = "ingredients"
	CollectionSettings    = "settings"
	CollectionPhotos      = "photos"
)

// SchemaVersion is the version of AppSchema. Stores holding a newer version
// refuse to open.
const SchemaVersion = 1

// IndexSpec declares a secondary index over one record field.
type IndexSpec struct {
	Name   string
	Field  string
	Unique bool
}

// CollectionSchema declares a collection, its key field and its indexes.
type CollectionSchema struct {
	Name     string
	KeyField string
	Indexes  []IndexSpec
}

// Index returns the declared index with the given name.
func (c CollectionSchema) Index(name string) (IndexSpec, bool) {
	for _, idx := range c.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexSpec{}, false
}

// Schema is a versioned, static list of collections.
type Schema struct {
	Version     int
	Collections []CollectionSchema
}

// Collection returns the declaration for name.
func (s Schema) Collection(name string) (CollectionSchema, bool) {
	for _, c := range s.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return CollectionSchema{}, false
}

// Names lists the collection names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Collections))
	for i, c := range s.Collections {
		names[i] = c.Name
	}
	return names
}

// AppSchema is the schema every backend materializes.
var AppSchema = Schema{
	Version: SchemaVersion,
	Collections: []CollectionSchema{
		{Name: CollectionAccounts, KeyField: "id", Indexes: []IndexSpec{
			{Name: "date", Field: "date"},
			{Name: "type", Field: "type"},
		}},
		{Name: CollectionDiaries, KeyField: "id", Indexes: []IndexSpec{
			{Name: "date", Field: "date"},
		}},
		{Name: CollectionGames, KeyField: "id", Indexes: []IndexSpec{
			{Name: "gameType", Field: "gameType"},
		}},
		{Name: CollectionFoods, KeyField: "id", Indexes: []IndexSpec{
			{Name: "name", Field: "name"},
		}},
		{Name: CollectionIngredients, KeyField: "id", Indexes: []IndexSpec{
			{Name: "category", Field: "category"},
		}},
		{Name: CollectionSettings, KeyField: "key"},
		{Name: CollectionPhotos, KeyField: "id", Indexes: []IndexSpec{
			{Name: "date", Field: "date"},
		}},
	},
}

// StandardCollectionNames lists all collection names for enumeration.
var StandardCollectionNames = AppSchema.Names()
