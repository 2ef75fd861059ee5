package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Document as written by the first version of the bot
const legacyDocument = `{"Hack.lu": {"name": "Hack.lu", "challenges": {"baby rop": {"user": "alice", "solved": true, "working_on": false}, "web 100": {"user": null, "solved": false, "working_on": false}, "rev": {"user": "bob", "solved": false, "working_on": true}}}, "ASIS": {"name": "ASIS", "challenges": {}}}`

func TestDecodeLegacyDocument(t *testing.T) {
	s, err := decode([]byte(legacyDocument))
	require.NoError(t, err)

	var names []string
	for name := range s.events.all() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"Hack.lu", "ASIS"}, names)

	event, ok := s.events.get("Hack.lu")
	require.True(t, ok)
	var entries []Entry
	for name, challenge := range event.challenges.all() {
		entries = append(entries, Entry{Name: name, Challenge: challenge})
	}
	assert.Equal(t, []Entry{
		{Name: "baby rop", Challenge: Challenge{Claimant: "alice", Solved: true}},
		{Name: "web 100"},
		{Name: "rev", Challenge: Challenge{Claimant: "bob", InProgress: true}},
	}, entries)
}

func TestEncodeRoundTrip(t *testing.T) {
	s, err := decode([]byte(legacyDocument))
	require.NoError(t, err)

	data, err := encode(s)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	again, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, again)

	// Same document once normalised by encoding/json
	var expected, actual map[string]any
	require.NoError(t, json.Unmarshal([]byte(legacyDocument), &expected))
	require.NoError(t, json.Unmarshal(data, &actual))
	assert.Equal(t, expected, actual)
}

func TestEncodeEscapesNames(t *testing.T) {
	s := newState()
	event := newEvent(`quote " and dot.name`)
	event.challenges.set(`back\slash <tag>`, Challenge{Claimant: "ünïcode", InProgress: true})
	s.events.set(event.Name, event)

	data, err := encode(s)
	require.NoError(t, err)

	again, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestEncodeKeepsInsertionOrder(t *testing.T) {
	s := newState()
	for _, name := range []string{"zeta", "10", "alpha", "2"} {
		event := newEvent(name)
		event.challenges.set("b", Challenge{})
		event.challenges.set("a", Challenge{Claimant: "bob", Solved: true})
		s.events.set(name, event)
	}

	data, err := encode(s)
	require.NoError(t, err)

	document := string(data)
	assert.Less(t, strings.Index(document, `"zeta"`), strings.Index(document, `"10"`))
	assert.Less(t, strings.Index(document, `"10"`), strings.Index(document, `"alpha"`))
	assert.Less(t, strings.Index(document, `"alpha"`), strings.Index(document, `"2"`))
	assert.Contains(t, document, "\n  \"zeta\": {\n")
	assert.Less(t, strings.Index(document, `"b"`), strings.Index(document, `"a"`))
	assert.Contains(t, document, `"user": "bob"`)
}

func TestDecodeEmptyAndInvalid(t *testing.T) {
	s, err := decode(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.events.len())

	s, err = decode([]byte("  \n"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.events.len())

	for _, document := range []string{`{`, `[]`, `{"a": 1}`, `{"a": {"challenges": []}}`, `{"": {"challenges": {}}}`, `{"a": {"challenges": {"": {}}}}`} {
		_, err := decode([]byte(document))
		assert.Error(t, err, document)
	}
}

func TestDecodeNormalisesImpossibleStates(t *testing.T) {
	s, err := decode([]byte(`{"e": {"challenges": {"c": {"user": null, "solved": true, "working_on": true}, "d": {"user": "x", "solved": true, "working_on": true}}}}`))
	require.NoError(t, err)

	event, _ := s.events.get("e")
	c, _ := event.challenges.get("c")
	assert.Equal(t, Challenge{}, c)
	d, _ := event.challenges.get("d")
	assert.Equal(t, Challenge{Claimant: "x", Solved: true}, d)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom_ctfs.json")
	store := NewFileStore(path)

	data, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, store.Save([]byte(legacyDocument)))
	data, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, legacyDocument, string(data))

	require.NoError(t, store.Save([]byte("{}")))
	data, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	// No temporary files left behind
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileStoreSaveFailure(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing", "custom_ctfs.json"))
	assert.Error(t, store.Save([]byte("{}")))
}

func TestRegistryOnFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom_ctfs.json")
	registry, err := Load(NewFileStore(path))
	require.NoError(t, err)

	require.NoError(t, registry.CreateEvent("DEFCON"))
	_, err = registry.ClaimChallenge("DEFCON", "pwn1", "alice")
	require.NoError(t, err)

	reloaded, err := Load(NewFileStore(path))
	require.NoError(t, err)
	description, err := reloaded.DescribeEvent("DEFCON")
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "pwn1", Challenge: Challenge{Claimant: "alice", InProgress: true}}}, description.Unsolved)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom_ctfs.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := Load(NewFileStore(path))
	assert.Error(t, err)
}
