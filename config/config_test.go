package config

import (
	"encoding/json"
	"testing"
)

func TestNodeID_MarshalJSON(t *testing.T) {
	id := NodeID{Host: "127.0.0.1", Port: 4000}
	raw, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(raw) != `["127.0.0.1",4000]` {
		t.Errorf("Marshal(%v) = %s, want [\"127.0.0.1\",4000]", id, raw)
	}
}

func TestNodeID_UnmarshalJSON(t *testing.T) {
	var id NodeID
	if err := json.Unmarshal([]byte(`["10.0.0.1",5000]`), &id); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := NodeID{Host: "10.0.0.1", Port: 5000}
	if id != want {
		t.Errorf("Unmarshal() = %+v, want %+v", id, want)
	}
}

func TestNodeID_RoundTrip(t *testing.T) {
	id := NodeID{Host: "node.example", Port: 9001}
	raw, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got NodeID
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != id {
		t.Errorf("round trip = %+v, want %+v", got, id)
	}
}

func TestNodeID_UnmarshalJSON_BadShape(t *testing.T) {
	var id NodeID
	if err := json.Unmarshal([]byte(`{"host":"x","port":1}`), &id); err == nil {
		t.Error("NodeID should reject an object, only a 2-element array is valid")
	}
}

func TestNodeID_UnmarshalJSON_NonStringHost(t *testing.T) {
	var id NodeID
	if err := json.Unmarshal([]byte(`[1,2]`), &id); err == nil {
		t.Error("NodeID should reject a non-string host")
	}
}

func TestDefault(t *testing.T) {
	opts := Default()
	if opts.Host != DefaultHost {
		t.Errorf("Host = %q, want %q", opts.Host, DefaultHost)
	}
	if opts.Difficulty != DefaultDifficulty {
		t.Errorf("Difficulty = %d, want %d", opts.Difficulty, DefaultDifficulty)
	}
	if opts.Reward != DefaultReward {
		t.Errorf("Reward = %d, want %d", opts.Reward, DefaultReward)
	}
	if len(opts.KnownNodes) != 0 {
		t.Error("Default() should have no seed peers")
	}
}
