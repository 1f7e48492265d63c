package store

import (
	"testing"
)

func TestGetEngagementNotFound(t *testing.T) {
	db := testDB(t)

	e, err := db.GetEngagement("new-user")
	if err != nil {
		t.Fatalf("GetEngagement: %v", err)
	}
	if e != nil {
		t.Error("expected nil for unseen user")
	}
}

func TestSaveAndGetEngagement(t *testing.T) {
	db := testDB(t)

	e := &Engagement{
		UserID:           "u1",
		StressScore:      45.5,
		SessionTurnCount: 3,
		LowContentStreak: 1,
		SessionStartedAt: 1000,
		LastTurnAt:       2000,
	}
	if err := db.SaveEngagement(e); err != nil {
		t.Fatalf("SaveEngagement: %v", err)
	}

	got, err := db.GetEngagement("u1")
	if err != nil {
		t.Fatalf("GetEngagement: %v", err)
	}
	if got == nil {
		t.Fatal("expected engagement, got nil")
	}
	if got.StressScore != 45.5 {
		t.Errorf("stress = %f, want 45.5", got.StressScore)
	}
	if got.SessionTurnCount != 3 {
		t.Errorf("session turns = %d, want 3", got.SessionTurnCount)
	}
	if got.LastSuggestionAt != 0 {
		t.Errorf("last suggestion = %d, want 0", got.LastSuggestionAt)
	}
}

func TestSaveEngagementUpsert(t *testing.T) {
	db := testDB(t)

	db.SaveEngagement(&Engagement{UserID: "u1", StressScore: 30, SessionTurnCount: 1})
	db.SaveEngagement(&Engagement{UserID: "u1", StressScore: 80, SessionTurnCount: 2, LastSuggestionAt: 5000})

	got, err := db.GetEngagement("u1")
	if err != nil {
		t.Fatalf("GetEngagement: %v", err)
	}
	if got.StressScore != 80 {
		t.Errorf("stress = %f, want 80", got.StressScore)
	}
	if got.SessionTurnCount != 2 {
		t.Errorf("session turns = %d, want 2", got.SessionTurnCount)
	}
	if got.LastSuggestionAt != 5000 {
		t.Errorf("last suggestion = %d, want 5000", got.LastSuggestionAt)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM engagement WHERE user_id = 'u1'").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row after upsert, got %d", count)
	}
}
