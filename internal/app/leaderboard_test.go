package app

import (
	"reflect"
	"testing"

	"quizforge/internal/domain"
)

func TestRerankOrdersByScoreDescending(t *testing.T) {
	entries := []domain.LeaderboardEntry{
		{PlayerName: "Alice", Score: 85},
		{PlayerName: "Bob", Score: 95},
		{PlayerName: "Cara", Score: 75},
	}

	ranked := Rerank(entries)

	wantScores := []int{95, 85, 75}
	for i, want := range wantScores {
		if ranked[i].Score != want {
			t.Fatalf("position %d: expected score %d, got %d", i, want, ranked[i].Score)
		}
		if ranked[i].Rank != i+1 {
			t.Fatalf("position %d: expected rank %d, got %d", i, i+1, ranked[i].Rank)
		}
	}
}

func TestRerankIsIdempotent(t *testing.T) {
	entries := Rerank([]domain.LeaderboardEntry{
		{PlayerName: "Alice", Score: 40},
		{PlayerName: "Bob", Score: 60},
	})

	again := Rerank(entries)
	if !reflect.DeepEqual(entries, again) {
		t.Fatalf("reranking a ranked list changed it:\nfirst:  %+v\nsecond: %+v", entries, again)
	}
}

func TestRerankKeepsInsertionOrderOnTies(t *testing.T) {
	ranked := Rerank([]domain.LeaderboardEntry{
		{PlayerName: "First", Score: 50},
		{PlayerName: "Second", Score: 50},
		{PlayerName: "Third", Score: 50},
	})

	wantNames := []string{"First", "Second", "Third"}
	for i, want := range wantNames {
		if ranked[i].PlayerName != want {
			t.Fatalf("tie order broken at %d: expected %s, got %s", i, want, ranked[i].PlayerName)
		}
	}
	if ranked[0].Rank != 1 || ranked[1].Rank != 2 || ranked[2].Rank != 3 {
		t.Fatalf("expected strict ordinal ranks on ties, got %+v", ranked)
	}
}

func TestRerankDoesNotMutateInput(t *testing.T) {
	entries := []domain.LeaderboardEntry{
		{PlayerName: "Low", Score: 10},
		{PlayerName: "High", Score: 90},
	}
	_ = Rerank(entries)
	if entries[0].PlayerName != "Low" || entries[0].Rank != 0 {
		t.Fatalf("input slice was mutated: %+v", entries)
	}
}
