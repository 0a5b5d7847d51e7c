package models

import (
	"testing"
)

func TestNormalizePair(t *testing.T) {
	if a, b := NormalizePair(7, 3); a != 3 || b != 7 {
		t.Fatalf("NormalizePair(7, 3) = (%d, %d), want (3, 7)", a, b)
	}
	if a, b := NormalizePair(3, 7); a != 3 || b != 7 {
		t.Fatalf("NormalizePair(3, 7) = (%d, %d), want (3, 7)", a, b)
	}
}

func TestChatParticipants(t *testing.T) {
	chat := Chat{UserAID: 3, UserBID: 7}

	if !chat.HasParticipant(3) || !chat.HasParticipant(7) {
		t.Fatalf("participants not recognized")
	}
	if chat.HasParticipant(9) {
		t.Fatalf("non-participant recognized")
	}
	if chat.OtherParticipant(3) != 7 || chat.OtherParticipant(7) != 3 {
		t.Fatalf("OtherParticipant wrong")
	}
}
