package schema

import (
	"io/ioutil"
	"os"
	"path"
	"testing"

	"github.com/waggleworks/waggle/src/entry"
)

func testDefinition() *Definition {
	return &Definition{
		Name: "chat",
		UUID: "ec19a9ab-8c3f-47c3-8d1c-2a1f2073a86a",
		EntryTypes: map[string]*EntryTypeDef{
			"message": {Sharing: SharingPublic},
			"draft":   {Sharing: SharingPrivate},
		},
	}
}

func TestGetEntryTypeDef(t *testing.T) {
	def := testDefinition()

	msg, ok := def.GetEntryTypeDef("message")
	if !ok {
		t.Fatal("message should be declared")
	}
	if !msg.Sharing.CanPublish() {
		t.Fatal("message should be publishable")
	}

	draft, ok := def.GetEntryTypeDef("draft")
	if !ok {
		t.Fatal("draft should be declared")
	}
	if draft.Sharing.CanPublish() {
		t.Fatal("draft should not be publishable")
	}

	if _, ok := def.GetEntryTypeDef("unknown"); ok {
		t.Fatal("unknown should not be declared")
	}
}

func TestSharingCanPublish(t *testing.T) {
	if !SharingPublic.CanPublish() {
		t.Fatal("public should publish")
	}
	if SharingPrivate.CanPublish() {
		t.Fatal("private should not publish")
	}
	if SharingEncrypted.CanPublish() {
		t.Fatal("encrypted should not publish yet")
	}
}

func TestValidate(t *testing.T) {
	def := testDefinition()
	if err := def.Validate(); err != nil {
		t.Fatal(err)
	}

	def.EntryTypes["%sneaky"] = &EntryTypeDef{Sharing: SharingPublic}
	if err := def.Validate(); err == nil {
		t.Fatal("Validate should reject the reserved system prefix")
	}

	unnamed := &Definition{}
	if err := unnamed.Validate(); err == nil {
		t.Fatal("Validate should reject an unnamed definition")
	}
}

func TestDefinitionEntry(t *testing.T) {
	def := testDefinition()

	e, err := def.Entry()
	if err != nil {
		t.Fatal(err)
	}

	if e.Type != entry.TypeAppDefinition {
		t.Fatalf("definition entry type should be %s, not %s",
			entry.TypeAppDefinition, e.Type)
	}

	e2, err := def.Entry()
	if err != nil {
		t.Fatal(err)
	}

	if e.Address() != e2.Address() {
		t.Fatal("definition address should be deterministic")
	}
}

func TestLoad(t *testing.T) {
	os.Mkdir("test_data", os.ModeDir|0700)
	dir, err := ioutil.TempDir("test_data", "waggle")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	raw := `{
		"name": "chat",
		"entry_types": {
			"message": {"sharing": "public"},
			"draft": {"sharing": "private"}
		}
	}`

	file := path.Join(dir, "app.json")
	if err := ioutil.WriteFile(file, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	def, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}

	if def.Name != "chat" {
		t.Fatalf("definition name should be chat, not %s", def.Name)
	}

	msg, ok := def.GetEntryTypeDef("message")
	if !ok || msg.Sharing != SharingPublic {
		t.Fatalf("message should be declared public, got %v", msg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	os.Mkdir("test_data", os.ModeDir|0700)
	dir, err := ioutil.TempDir("test_data", "waggle")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	raw := `{"name": "chat", "entry_types": {"%sneaky": {"sharing": "public"}}}`

	file := path.Join(dir, "app.json")
	if err := ioutil.WriteFile(file, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(file); err == nil {
		t.Fatal("Load should reject reserved type names")
	}
}
