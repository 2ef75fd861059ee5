package registry

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// On-disk form of a challenge. A null user means unclaimed
type challengeRecord struct {
	User      *string `json:"user"`
	Solved    bool    `json:"solved"`
	WorkingOn bool    `json:"working_on"`
}

// All the events of a registry, in creation order
type state struct {
	events ordered[*Event]
}

func newState() state {
	return state{events: newOrdered[*Event]()}
}

// Deep copy, so that mutations on the copy never reach the original
func (s state) clone() state {
	c := newState()
	for name, event := range s.events.all() {
		c.events.set(name, event.clone())
	}
	return c
}

// Encode the whole registry as a single JSON document keyed by event name.
// sjson appends new keys at the end of an object, so events and challenges
// keep their insertion order
func encode(s state) ([]byte, error) {

	doc := []byte(`{}`)
	for name, event := range s.events.all() {
		value, err := encodeEvent(event)
		if err != nil {
			return nil, err
		}
		if doc, err = sjson.SetRawBytes(doc, pathKey(name), value); err != nil {
			return nil, fmt.Errorf("encode event %q: %w", name, err)
		}
	}
	return pretty.Pretty(doc), nil
}

func encodeEvent(event *Event) ([]byte, error) {

	value, err := sjson.SetBytes([]byte(`{}`), "name", event.Name)
	if err != nil {
		return nil, err
	}
	if value, err = sjson.SetRawBytes(value, "challenges", []byte(`{}`)); err != nil {
		return nil, err
	}
	for name, challenge := range event.challenges.all() {
		record := challengeRecord{Solved: challenge.Solved, WorkingOn: challenge.InProgress}
		if challenge.Claimed() {
			claimant := challenge.Claimant
			record.User = &claimant
		}
		if value, err = sjson.SetBytes(value, "challenges."+pathKey(name), record); err != nil {
			return nil, fmt.Errorf("encode challenge %q of event %q: %w", name, event.Name, err)
		}
	}
	return value, nil
}

// Escape a name so that sjson takes it as a single literal key
func pathKey(name string) string {

	var b strings.Builder
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '\\', '.', '*', '?', '|', '#', '@', ':', '!':
			b.WriteByte('\\')
		}
		b.WriteByte(name[i])
	}
	return b.String()
}

// Decode a document produced by encode (or by older versions of the bot).
// An empty document is an empty registry
func decode(data []byte) (state, error) {

	s := newState()
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	if !gjson.ValidBytes(data) {
		return state{}, fmt.Errorf("registry document is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return state{}, fmt.Errorf("registry document is not a JSON object")
	}

	var err error
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if !validName(name) {
			err = fmt.Errorf("event name %q is empty or not valid UTF-8", name)
			return false
		}
		if !value.IsObject() {
			err = fmt.Errorf("event %q is not a JSON object", name)
			return false
		}
		challenges := value.Get("challenges")
		if challenges.Exists() && !challenges.IsObject() {
			err = fmt.Errorf("challenges of event %q are not a JSON object", name)
			return false
		}

		event := newEvent(name)
		challenges.ForEach(func(challengeKey, challengeValue gjson.Result) bool {
			if !validName(challengeKey.String()) {
				err = fmt.Errorf("challenge name %q of event %q is empty or not valid UTF-8", challengeKey.String(), name)
				return false
			}
			challenge := Challenge{
				Solved:     challengeValue.Get("solved").Bool(),
				InProgress: challengeValue.Get("working_on").Bool(),
			}
			if user := challengeValue.Get("user"); user.Type == gjson.String {
				challenge.Claimant = user.String()
			}
			event.challenges.set(challengeKey.String(), challenge.normalise())
			return true
		})
		if err != nil {
			return false
		}
		s.events.set(name, event)
		return true
	})
	if err != nil {
		return state{}, err
	}

	return s, nil
}
