package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestChatIDOrderIndependent(t *testing.T) {
	for i := 0; i < 100; i++ {
		a, b := uuid.New(), uuid.New()
		if ChatID(a, b) != ChatID(b, a) {
			t.Fatalf("ChatID(%s, %s) != ChatID(%s, %s)", a, b, b, a)
		}
	}
}

func TestChatIDContainsBothParticipants(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	id := ChatID(a, b)

	parts := strings.Split(id, "_")
	if len(parts) != 2 {
		t.Fatalf("chat id %q does not split into two uids", id)
	}
	if parts[0] >= parts[1] {
		t.Errorf("chat id %q is not sorted", id)
	}
	if !strings.Contains(id, a.String()) || !strings.Contains(id, b.String()) {
		t.Errorf("chat id %q missing a participant", id)
	}
}

func TestChatIDDistinctPairsDistinctIDs(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	if ChatID(a, b) == ChatID(a, c) {
		t.Errorf("distinct pairs produced the same chat id")
	}
}

func TestChatUsersMatchesChatIDOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	x, y := ChatUsers(a, b)
	if x.String() > y.String() {
		t.Errorf("ChatUsers(%s, %s) = (%s, %s), not sorted", a, b, x, y)
	}
	if got := ChatID(a, b); got != x.String()+"_"+y.String() {
		t.Errorf("ChatID order disagrees with ChatUsers: %q", got)
	}

	x2, y2 := ChatUsers(b, a)
	if x != x2 || y != y2 {
		t.Errorf("ChatUsers is order dependent")
	}
}
