package repository

import (
	"testing"

	"github.com/hitoshi/hoopfeed/internal/model"
)

// TestPostgresStatusRepo_ImplementsInterface はPostgresStatusRepoがStatusRepositoryを実装することを検証する。
func TestPostgresStatusRepo_ImplementsInterface(t *testing.T) {
	// コンパイル時チェック：PostgresStatusRepoがStatusRepositoryを満たすことを検証
	var _ StatusRepository = (*PostgresStatusRepo)(nil)
}

// TestPostgresMatchRepo_ImplementsInterface はPostgresMatchRepoがMatchRepositoryを実装することを検証する。
func TestPostgresMatchRepo_ImplementsInterface(t *testing.T) {
	var _ MatchRepository = (*PostgresMatchRepo)(nil)
	var _ TeamMatchRepository = (*PostgresTeamMatchRepo)(nil)
}

// TestPostgresFollowRepo_ImplementsInterface はPostgresFollowRepoがFollowRepositoryを実装することを検証する。
func TestPostgresFollowRepo_ImplementsInterface(t *testing.T) {
	var _ FollowRepository = (*PostgresFollowRepo)(nil)
	var _ CourtRepository = (*PostgresCourtRepo)(nil)
}

// TestFeedItemTypeValues はFeedItemTypeの定数値が正しいことを検証する。
func TestFeedItemTypeValues(t *testing.T) {
	if model.FeedItemTypeStatus != "status" {
		t.Errorf("FeedItemTypeStatus = %q, want %q", model.FeedItemTypeStatus, "status")
	}
	if model.FeedItemTypeMatch != "match" {
		t.Errorf("FeedItemTypeMatch = %q, want %q", model.FeedItemTypeMatch, "match")
	}
	if model.FeedItemTypeTeamMatch != "team_match" {
		t.Errorf("FeedItemTypeTeamMatch = %q, want %q", model.FeedItemTypeTeamMatch, "team_match")
	}
}
