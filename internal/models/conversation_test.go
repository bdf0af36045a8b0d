package models

import "testing"

func TestConversationState_EnsureSystemOnce(t *testing.T) {
	c := NewConversationState()
	if !c.IsFresh() {
		t.Fatal("new conversation should be fresh")
	}
	if !c.EnsureSystem("rules") {
		t.Error("first EnsureSystem should insert")
	}
	c.Append(RoleUser, "q1")
	if c.EnsureSystem("rules") {
		t.Error("second EnsureSystem should not insert")
	}
	if len(c.Messages) != 2 || c.Messages[0].Role != RoleSystem {
		t.Errorf("unexpected messages: %+v", c.Messages)
	}
}

func TestConversationState_SnapshotIsCopy(t *testing.T) {
	c := NewConversationState()
	c.Append(RoleUser, "a")
	snap := c.Snapshot()
	snap[0].Content = "changed"
	if c.Messages[0].Content != "a" {
		t.Error("snapshot should not alias state")
	}
}

func TestConversationState_Reset(t *testing.T) {
	c := NewConversationState()
	c.Append(RoleSystem, "s")
	c.Reset()
	if !c.IsFresh() {
		t.Error("reset should return to fresh")
	}
}

func TestRecordsHelpers(t *testing.T) {
	records := []ChunkRecord{
		{Manual: "m2", Path: "p1", ChunkIndex: 0, Text: "a"},
		{Manual: "m1", Path: "p2", ChunkIndex: 0, Text: "b"},
		{Manual: "m2", Path: "p1", ChunkIndex: 1, Text: "c"},
	}
	got := FilterByManual(records, "m2")
	if len(got) != 2 || got[1].Text != "c" {
		t.Errorf("FilterByManual: %+v", got)
	}
	names := ManualNames(records)
	if len(names) != 2 || names[0] != "m2" || names[1] != "m1" {
		t.Errorf("ManualNames: %v", names)
	}
	if Texts(got)[0] != "a" {
		t.Errorf("Texts: %v", Texts(got))
	}
	if records[0].Key() != "m2|p1|0" {
		t.Errorf("Key: %s", records[0].Key())
	}
}

func TestAnswer_HasPages(t *testing.T) {
	tests := []struct {
		name string
		a    *Answer
		want bool
	}{
		{"nil", nil, false},
		{"fallback", &Answer{Fallback: true, Citations: []string{"p"}}, false},
		{"no citations", &Answer{}, false},
		{"cited", &Answer{Citations: []string{"p"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.HasPages(); got != tt.want {
				t.Errorf("HasPages() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConversationState_CloneIsIndependent(t *testing.T) {
	c := NewConversationState()
	c.Append(RoleUser, "a")
	clone := c.Clone()
	clone.Append(RoleAssistant, "b")
	clone.Messages[0].Content = "changed"
	if len(c.Messages) != 1 || c.Messages[0].Content != "a" {
		t.Errorf("clone mutated original: %+v", c.Messages)
	}
}
