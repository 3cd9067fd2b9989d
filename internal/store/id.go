package store

// IDSource produces unique, creation-ordered record identifiers.
type IDSource interface {
	Next() string
}

// NewID returns a fresh identifier from the store's source.
func (tx *Tx) NewID() string {
	return tx.store.ids.Next()
}
