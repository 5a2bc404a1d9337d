package models

import (
	"encoding/json"
	"testing"

	"deusvent/internal/datetime"
	"deusvent/internal/encryption"
)

func TestUserIDParse(t *testing.T) {
	id := NewUserID()
	got, err := ParseUserID(id.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != id {
		t.Fatalf("got %s want %s", got, id)
	}
	if _, err := ParseUserID("not-a-uuid"); err == nil {
		t.Fatalf("expected error for invalid id")
	}
	if !(UserID{}).IsZero() || id.IsZero() {
		t.Fatalf("unexpected IsZero result")
	}
}

func TestSortKey(t *testing.T) {
	sk := SortKey(AccountType, "abc_def")
	if sk != "account_abc_def" {
		t.Fatalf("unexpected sort key %q", sk)
	}
	id, err := SplitSortKey(AccountType, sk)
	if err != nil || id != "abc_def" {
		t.Fatalf("split: %q %v", id, err)
	}
	if _, err := SplitSortKey(IdentityType, sk); err == nil {
		t.Fatalf("expected error for foreign entity type")
	}
}

func TestItemAttributes(t *testing.T) {
	item := Item{}
	item.SetString("s", "value")
	item.SetNumber("n", 42)

	if v, err := item.String("s"); err != nil || v != "value" {
		t.Fatalf("string: %q %v", v, err)
	}
	if v, err := item.Number("n"); err != nil || v != 42 {
		t.Fatalf("number: %d %v", v, err)
	}
	if _, err := item.String("n"); err == nil {
		t.Fatalf("expected type error")
	}
	if _, err := item.Number("s"); err == nil {
		t.Fatalf("expected type error")
	}
	if _, err := item.Number("missing"); err == nil {
		t.Fatalf("expected missing error")
	}

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"n":{"N":"42"},"s":{"S":"value"}}` {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestAccountItem(t *testing.T) {
	acc := NewAccount(datetime.NewServerTimestamp(1000))
	if acc.Key().EntityID != acc.UserID.String() {
		t.Fatalf("account entity id must be the user id: %+v", acc.Key())
	}
	item := Item{}
	acc.MarshalItem(item)
	got, err := AccountKind.Decode(acc.Key(), item)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *got != *acc {
		t.Fatalf("got %+v want %+v", got, acc)
	}
	if _, err := AccountKind.Decode(acc.Key(), Item{}); err == nil {
		t.Fatalf("expected error for empty item")
	}
}

func TestIdentityItem(t *testing.T) {
	keys, err := encryption.GenerateKeys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	name, err := encryption.Encrypt("Alice", keys.Private)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	identity := &PlayerIdentity{
		UserID:    NewUserID(),
		Name:      encryption.Encrypted(name),
		PublicKey: keys.Public.String(),
		UpdatedAt: datetime.NewServerTimestamp(5),
	}
	item := Item{}
	identity.MarshalItem(item)

	got, err := IdentityKind.Decode(identity.Key(), item)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Name.Equal(identity.Name) || got.PublicKey != identity.PublicKey || got.UpdatedAt != identity.UpdatedAt {
		t.Fatalf("got %+v want %+v", got, identity)
	}
	plain, err := got.Name.Reveal(keys.Private)
	if err != nil || plain != "Alice" {
		t.Fatalf("reveal: %q %v", plain, err)
	}

	item.SetString("name", "\"")
	if _, err := IdentityKind.Decode(identity.Key(), item); err == nil {
		t.Fatalf("expected error for corrupted name")
	}
}
