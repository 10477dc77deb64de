package domain

// Entity is a record the server owns. Key is the string form of the server
// assigned identifier and is empty while the record is new.
type Entity interface {
	Key() string
}

// ImageBearer is an entity with an attachable image reference.
type ImageBearer interface {
	Entity
	ImageRef() string
}

// IsNew reports whether e has not been persisted yet. Saving a new entity
// creates it; saving one with a key updates it.
func IsNew(e Entity) bool {
	return e.Key() == ""
}
