package sharding

import (
	"fmt"
	"strings"
	"testing"
)

func TestGetShardID(t *testing.T) {
	tests := []struct {
		entityID string
		want     int
	}{
		{"user-1", 532},
		{"user-2", 942},
		{"todo-abc", 748},
	}

	for _, tt := range tests {
		t.Run(tt.entityID, func(t *testing.T) {
			if got := GetShardID(tt.entityID); got != tt.want {
				t.Errorf("GetShardID(%q) = %v, want %v", tt.entityID, got, tt.want)
			}
		})
	}
}

func TestEventSubject(t *testing.T) {
	subject := EventSubject("user-1")
	expected := "todo.event.532.owner.user-1"
	if subject != expected {
		t.Errorf("EventSubject = %v, want %v", subject, expected)
	}
	if !strings.HasPrefix(subject, "todo.event.") {
		t.Errorf("subject %q is outside the event stream", subject)
	}
}

func TestStableSharding(t *testing.T) {
	id := "test-stable-id"
	if GetShardID(id) != GetShardID(id) {
		t.Errorf("sharding is not deterministic for %q", id)
	}
}

func TestDistribution(t *testing.T) {
	distribution := make(map[int]int)
	for i := 0; i < 1000; i++ {
		distribution[GetShardID(fmt.Sprintf("owner-%d", i))]++
	}
	if len(distribution) < 100 {
		t.Errorf("sharding distribution is too poor: %d unique shards for 1000 keys", len(distribution))
	}
}
