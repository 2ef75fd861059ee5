package registry

import (
	"iter"
	"slices"
)

// A challenge inside a custom event. The claimant is the name of the
// participant working on it (or the one who solved it). An empty claimant
// means nobody has claimed the challenge yet
type Challenge struct {
	Claimant   string
	Solved     bool
	InProgress bool
}

func (c Challenge) Claimed() bool {
	return c.Claimant != ""
}

// Bring a challenge back to a valid state: without a claimant
// it can be neither solved nor in progress, and a solved challenge
// is never in progress
func (c Challenge) normalise() Challenge {
	if !c.Claimed() {
		return Challenge{}
	}
	if c.Solved {
		c.InProgress = false
	}
	return c
}

// Named challenge, as produced by listings
type Entry struct {
	Name      string
	Challenge Challenge
}

// A custom event defined by the community. The name is the key
type Event struct {
	Name       string
	challenges ordered[Challenge]
}

func newEvent(name string) *Event {
	return &Event{Name: name, challenges: newOrdered[Challenge]()}
}

func (event *Event) Challenge(name string) (Challenge, bool) {
	return event.challenges.get(name)
}

func (event *Event) Len() int {
	return event.challenges.len()
}

func (event *Event) clone() *Event {
	return &Event{Name: event.Name, challenges: event.challenges.clone()}
}

// Description of an event, with its challenges split in two groups.
// Both groups keep the order in which challenges were added
type Description struct {
	Name     string
	Solved   []Entry
	Unsolved []Entry
}

// Map that remembers insertion order
type ordered[V any] struct {
	keys   []string
	values map[string]V
}

func newOrdered[V any]() ordered[V] {
	return ordered[V]{values: map[string]V{}}
}

func (o *ordered[V]) get(key string) (V, bool) {
	value, ok := o.values[key]
	return value, ok
}

func (o *ordered[V]) has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Set a value. New keys go to the end, existing keys keep their position
func (o *ordered[V]) set(key string, value V) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *ordered[V]) delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	if i := slices.Index(o.keys, key); i >= 0 {
		o.keys = slices.Delete(o.keys, i, i+1)
	}
	return true
}

func (o *ordered[V]) len() int {
	return len(o.keys)
}

func (o *ordered[V]) all() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, key := range o.keys {
			if !yield(key, o.values[key]) {
				return
			}
		}
	}
}

// Shallow copy of the map. Values are copied by assignment
func (o *ordered[V]) clone() ordered[V] {
	c := ordered[V]{keys: slices.Clone(o.keys), values: make(map[string]V, len(o.values))}
	for key, value := range o.values {
		c.values[key] = value
	}
	return c
}
