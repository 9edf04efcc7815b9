package models

import "testing"

func TestRoomIDOrderIndependent(t *testing.T) {
	if RoomID("alice", "bob") != RoomID("bob", "alice") {
		t.Fatalf("room id must not depend on argument order")
	}
	if RoomID("alice", "bob") != "alice_bob" {
		t.Fatalf("expected alice_bob, got %s", RoomID("alice", "bob"))
	}
}

func TestRoomIDDistinctPairs(t *testing.T) {
	if RoomID("a", "b") == RoomID("a", "c") {
		t.Fatalf("different pairs must map to different rooms")
	}
}

func TestMessageTypeValid(t *testing.T) {
	for _, mt := range []MessageType{TypeText, TypeImage, TypeVoice, TypeAsset} {
		if !mt.Valid() {
			t.Fatalf("%s should be valid", mt)
		}
	}
	if MessageType("video").Valid() {
		t.Fatalf("unknown type should be invalid")
	}
	if TypeText.Media() {
		t.Fatalf("text is not a media variant")
	}
	if !TypeVoice.Media() {
		t.Fatalf("voice is a media variant")
	}
}
