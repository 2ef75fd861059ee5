package registry

import (
	"fmt"
	"iter"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// Registry of custom events and the claim/solve state of their challenges.
// Every mutation reads, decides, mutates and persists under a single lock.
// Mutations are applied to a copy of the state that only replaces the
// live one once the store has accepted it
type Registry struct {
	mu    sync.RWMutex
	store Store
	state state
}

// Result of a claim
type Claim struct {
	// The challenge did not exist and was added by the claim
	Created bool
	// The actor already held the challenge, nothing changed
	AlreadyHeld bool
}

// Create a registry initialised from whatever the store holds
func Load(store Store) (*Registry, error) {

	data, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	s, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	log.Info().Msg(fmt.Sprintf("Loaded %d custom events", s.events.len()))

	return &Registry{store: store, state: s}, nil
}

func (registry *Registry) CreateEvent(name string) error {

	name = strings.TrimSpace(name)
	if !validName(name) {
		return &Error{Kind: KindInvalid, Event: name}
	}

	return registry.mutate(func(s *state) (bool, error) {
		if s.events.has(name) {
			return false, &Error{Kind: KindAlreadyExists, Event: name}
		}
		s.events.set(name, newEvent(name))
		log.Info().Msg(fmt.Sprintf("Created event %s", name))
		return true, nil
	})
}

// Delete an event together with all its challenges
func (registry *Registry) DeleteEvent(name string) error {

	return registry.mutate(func(s *state) (bool, error) {
		if !s.events.delete(name) {
			return false, &Error{Kind: KindNotFound, Event: name}
		}
		log.Info().Msg(fmt.Sprintf("Deleted event %s", name))
		return true, nil
	})
}

func (registry *Registry) AddChallenge(eventName string, challengeName string) error {

	challengeName = strings.TrimSpace(challengeName)
	if !validName(challengeName) {
		return &Error{Kind: KindInvalid, Event: eventName, Challenge: challengeName}
	}

	return registry.mutate(func(s *state) (bool, error) {
		event, err := s.event(eventName)
		if err != nil {
			return false, err
		}
		if event.challenges.has(challengeName) {
			return false, &Error{Kind: KindAlreadyExists, Event: eventName, Challenge: challengeName}
		}
		event.challenges.set(challengeName, Challenge{})
		log.Info().Msg(fmt.Sprintf("Added challenge %s to event %s", challengeName, eventName))
		return true, nil
	})
}

// Claim a challenge for the actor. A challenge that does not exist yet
// is added to the event first. Claiming a challenge the actor already
// holds is a no-op
func (registry *Registry) ClaimChallenge(eventName string, challengeName string, actor string) (Claim, error) {

	challengeName = strings.TrimSpace(challengeName)
	if !validName(challengeName) || !validName(actor) {
		return Claim{}, &Error{Kind: KindInvalid, Event: eventName, Challenge: challengeName}
	}

	var claim Claim
	err := registry.mutate(func(s *state) (bool, error) {
		event, err := s.event(eventName)
		if err != nil {
			return false, err
		}

		challenge, ok := event.challenges.get(challengeName)
		if !ok {
			claim.Created = true
			log.Info().Msg(fmt.Sprintf("Challenge %s does not exist in event %s, adding it", challengeName, eventName))
		}

		if challenge.Claimed() {
			if challenge.Claimant != actor {
				return false, &Error{Kind: KindAlreadyClaimed, Event: eventName, Challenge: challengeName, Claimant: challenge.Claimant}
			}
			claim.AlreadyHeld = true
			return false, nil
		}

		challenge = Challenge{Claimant: actor, InProgress: true}
		event.challenges.set(challengeName, challenge)
		log.Info().Msg(fmt.Sprintf("Challenge %s in event %s claimed by %s", challengeName, eventName, actor))
		return true, nil
	})
	if err != nil {
		return Claim{}, err
	}

	return claim, nil
}

// Mark a challenge as solved. Only the claimant can do it
func (registry *Registry) SolveChallenge(eventName string, challengeName string, actor string) error {

	return registry.mutate(func(s *state) (bool, error) {
		event, challenge, err := s.challenge(eventName, challengeName)
		if err != nil {
			return false, err
		}
		if !challenge.Claimed() || challenge.Claimant != actor {
			return false, &Error{Kind: KindNotOwner, Event: eventName, Challenge: challengeName, Claimant: challenge.Claimant}
		}
		if challenge.Solved {
			return false, nil
		}
		challenge.Solved = true
		challenge.InProgress = false
		event.challenges.set(challengeName, challenge)
		log.Info().Msg(fmt.Sprintf("Challenge %s in event %s solved by %s", challengeName, eventName, actor))
		return true, nil
	})
}

// Remove a challenge. Only the claimant can do it, so unclaimed
// challenges cannot be deleted
func (registry *Registry) DeleteChallenge(eventName string, challengeName string, actor string) error {

	return registry.mutate(func(s *state) (bool, error) {
		event, challenge, err := s.challenge(eventName, challengeName)
		if err != nil {
			return false, err
		}
		if !challenge.Claimed() || challenge.Claimant != actor {
			return false, &Error{Kind: KindNotOwner, Event: eventName, Challenge: challengeName, Claimant: challenge.Claimant}
		}
		event.challenges.delete(challengeName)
		log.Info().Msg(fmt.Sprintf("Challenge %s deleted from event %s by %s", challengeName, eventName, actor))
		return true, nil
	})
}

// Sequence over the challenges of an event in the order they were added.
// The sequence works on a snapshot taken now, so it can be iterated
// several times and never sees later mutations
func (registry *Registry) ListChallenges(eventName string) (iter.Seq2[string, Challenge], error) {

	registry.mu.RLock()
	defer registry.mu.RUnlock()

	event, err := registry.state.event(eventName)
	if err != nil {
		return nil, err
	}
	snapshot := event.challenges.clone()
	return snapshot.all(), nil
}

func (registry *Registry) DescribeEvent(eventName string) (Description, error) {

	registry.mu.RLock()
	defer registry.mu.RUnlock()

	event, err := registry.state.event(eventName)
	if err != nil {
		return Description{}, err
	}
	description := Description{Name: event.Name}
	for name, challenge := range event.challenges.all() {
		entry := Entry{Name: name, Challenge: challenge}
		if challenge.Solved {
			description.Solved = append(description.Solved, entry)
		} else {
			description.Unsolved = append(description.Unsolved, entry)
		}
	}
	return description, nil
}

// Joining only requires the event to exist. The caller hands out the role
func (registry *Registry) JoinEvent(eventName string, actor string) error {
	return registry.exists(eventName)
}

// Leaving only requires the event to exist. Challenges claimed by the
// actor stay claimed
func (registry *Registry) LeaveEvent(eventName string, actor string) error {
	return registry.exists(eventName)
}

func (registry *Registry) Has(eventName string) bool {
	return registry.exists(eventName) == nil
}

// Names of all the events, in creation order
func (registry *Registry) Events() []string {

	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, registry.state.events.len())
	for name := range registry.state.events.all() {
		names = append(names, name)
	}
	return names
}

func (registry *Registry) exists(eventName string) error {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	_, err := registry.state.event(eventName)
	return err
}

// Apply a change to a copy of the state. If the change reports a
// modification, the copy is persisted and only then becomes the live state
func (registry *Registry) mutate(change func(s *state) (bool, error)) error {

	registry.mu.Lock()
	defer registry.mu.Unlock()

	next := registry.state.clone()
	modified, err := change(&next)
	if err != nil {
		return err
	}
	if !modified {
		return nil
	}

	data, err := encode(next)
	if err != nil {
		return &Error{Kind: KindPersistence, Err: err}
	}
	if err := registry.store.Save(data); err != nil {
		log.Error().Err(err).Msg("Could not persist registry, change discarded")
		return &Error{Kind: KindPersistence, Err: err}
	}
	registry.state = next
	return nil
}

// Names have to come back unchanged from the JSON document
func validName(name string) bool {
	return name != "" && utf8.ValidString(name)
}

func (s *state) event(name string) (*Event, error) {
	event, ok := s.events.get(name)
	if !ok {
		return nil, &Error{Kind: KindNotFound, Event: name}
	}
	return event, nil
}

func (s *state) challenge(eventName string, challengeName string) (*Event, Challenge, error) {
	event, err := s.event(eventName)
	if err != nil {
		return nil, Challenge{}, err
	}
	challenge, ok := event.challenges.get(challengeName)
	if !ok {
		return nil, Challenge{}, &Error{Kind: KindNotFound, Event: eventName, Challenge: challengeName}
	}
	return event, challenge, nil
}
