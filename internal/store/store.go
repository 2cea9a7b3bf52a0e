// Package store holds the immutable table of parameters the function can
// resolve.
package store

import "sort"

// MongoDB is the name of the only parameter in the default table.
const MongoDB = "mongodb"

// MongoDBValue is the JSON document returned for MongoDB.
const MongoDBValue = `{"uri": "mongodb://localhost:27017/?retryWrites=false"}`

// Store maps parameter names to JSON-formatted values. It is never mutated
// after New returns, so a single Store may be shared by concurrent invocations.
type Store struct {
	values map[string]string
}

// New copies values into a new Store.
func New(values map[string]string) *Store {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &Store{values: m}
}

// Default returns the built-in table.
func Default() *Store {
	return New(map[string]string{MongoDB: MongoDBValue})
}

// Lookup returns the value stored under name.
func (s *Store) Lookup(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the parameter names in lexical order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of parameters.
func (s *Store) Len() int {
	return len(s.values)
}
