// Package seed は開発・デモ環境向けのダミーデータ投入を提供する。
//
// ユーザー・コート・投稿・フォロー関係・試合結果を生成し、
// フィードの全ソースとジオティアが動作確認できる状態を作る。
// 本番環境での実行は想定していない。
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// Config はシード件数の設定。
type Config struct {
	Users    int
	Courts   int
	Statuses int
}

// Seeder はダミーデータの生成と投入を行う。
type Seeder struct {
	db     *sql.DB
	logger *slog.Logger
	faker  *gofakeit.Faker
}

// NewSeeder はSeederを生成する。
func NewSeeder(db *sql.DB, logger *slog.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: logger,
		faker:  gofakeit.New(0),
	}
}

// courtSuffixes はコート名の語尾バリエーション。
var courtSuffixes = []string{"Park Court", "Rec Center", "Community Gym", "Playground", "Sports Complex"}

// accessLevels はコートのアクセス区分。
var accessLevels = []string{"public", "public", "public", "members", "paid"}

// Run は全テーブルへダミーデータを投入する。
// 外部キーの依存順（users → courts → statuses → engagement → follows → matches）で実行する。
func (s *Seeder) Run(ctx context.Context, cfg Config) error {
	start := time.Now()

	userIDs, err := s.seedUsers(ctx, cfg.Users)
	if err != nil {
		return fmt.Errorf("ユーザーのシードに失敗: %w", err)
	}

	courtIDs, err := s.seedCourts(ctx, cfg.Courts)
	if err != nil {
		return fmt.Errorf("コートのシードに失敗: %w", err)
	}

	statusIDs, err := s.seedStatuses(ctx, cfg.Statuses, userIDs, courtIDs)
	if err != nil {
		return fmt.Errorf("投稿のシードに失敗: %w", err)
	}

	if err := s.seedEngagement(ctx, statusIDs, userIDs); err != nil {
		return fmt.Errorf("エンゲージメントのシードに失敗: %w", err)
	}

	if err := s.seedFollows(ctx, userIDs, courtIDs); err != nil {
		return fmt.Errorf("フォロー関係のシードに失敗: %w", err)
	}

	if err := s.seedMatches(ctx, userIDs, courtIDs); err != nil {
		return fmt.Errorf("試合結果のシードに失敗: %w", err)
	}

	s.logger.Info("seed completed",
		slog.Int("users", len(userIDs)),
		slog.Int("courts", len(courtIDs)),
		slog.Int("statuses", len(statusIDs)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.NewString()
		name := s.faker.Name()
		avatar := fmt.Sprintf("https://avatars.example.com/%s.png", s.faker.Username())

		_, err := s.db.ExecContext(ctx,
			`INSERT INTO users (id, display_name, avatar_url) VALUES ($1, $2, $3)`,
			id, name, avatar,
		)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Seeder) seedCourts(ctx context.Context, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.NewString()
		name := fmt.Sprintf("%s %s", s.faker.City(), courtSuffixes[s.faker.Number(0, len(courtSuffixes)-1)])

		// NYC近郊に散らす。拡大半径フォールバック（100/250/500マイル）を
		// 動作確認できるよう、一部は意図的に遠方へ置く。
		lat := 40.7 + s.faker.Float64Range(-0.5, 0.5)
		lng := -74.0 + s.faker.Float64Range(-0.5, 0.5)
		if i%7 == 0 {
			lat = s.faker.Float64Range(35.0, 45.0)
			lng = s.faker.Float64Range(-122.0, -71.0)
		}

		_, err := s.db.ExecContext(ctx,
			`INSERT INTO courts (id, name, city, lat, lng, indoor, rims, access)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, name, s.faker.City(), lat, lng,
			s.faker.Bool(), s.faker.Number(1, 6),
			accessLevels[s.faker.Number(0, len(accessLevels)-1)],
		)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Seeder) seedStatuses(ctx context.Context, n int, userIDs, courtIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.NewString()
		userID := userIDs[s.faker.Number(0, len(userIDs)-1)]
		content := s.faker.Sentence(s.faker.Number(4, 12))

		var courtID sql.NullString
		if len(courtIDs) > 0 && s.faker.Number(0, 9) < 4 {
			courtID = sql.NullString{String: courtIDs[s.faker.Number(0, len(courtIDs)-1)], Valid: true}
		}

		// 一部はゲームイベント（開催日時つき）にする
		var scheduledAt sql.NullTime
		if courtID.Valid && s.faker.Number(0, 9) < 5 {
			scheduledAt = sql.NullTime{
				Time:  time.Now().Add(time.Duration(s.faker.Number(1, 168)) * time.Hour),
				Valid: true,
			}
		}

		// 作成時刻を過去2週間に散らし、新鮮度スコアの分布を作る
		createdAt := time.Now().Add(-time.Duration(s.faker.Number(0, 14*24)) * time.Hour)

		_, err := s.db.ExecContext(ctx,
			`INSERT INTO player_statuses (id, user_id, content, court_id, scheduled_at, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, userID, content, courtID, scheduledAt, createdAt,
		)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Seeder) seedEngagement(ctx context.Context, statusIDs, userIDs []string) error {
	for _, statusID := range statusIDs {
		likeCount := s.faker.Number(0, 8)
		for _, userID := range pickDistinct(s.faker, userIDs, likeCount) {
			_, err := s.db.ExecContext(ctx,
				`INSERT INTO status_likes (status_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				statusID, userID,
			)
			if err != nil {
				return err
			}
		}

		commentCount := s.faker.Number(0, 3)
		for i := 0; i < commentCount; i++ {
			userID := userIDs[s.faker.Number(0, len(userIDs)-1)]
			_, err := s.db.ExecContext(ctx,
				`INSERT INTO status_comments (id, status_id, user_id, content) VALUES ($1, $2, $3, $4)`,
				uuid.NewString(), statusID, userID, s.faker.Sentence(s.faker.Number(3, 8)),
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedFollows(ctx context.Context, userIDs, courtIDs []string) error {
	for _, followerID := range userIDs {
		for _, followedID := range pickDistinct(s.faker, userIDs, s.faker.Number(0, 8)) {
			if followedID == followerID {
				continue
			}
			_, err := s.db.ExecContext(ctx,
				`INSERT INTO user_followed_players (follower_id, followed_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				followerID, followedID,
			)
			if err != nil {
				return err
			}
		}

		for _, courtID := range pickDistinct(s.faker, courtIDs, s.faker.Number(0, 3)) {
			_, err := s.db.ExecContext(ctx,
				`INSERT INTO user_followed_courts (user_id, court_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				followerID, courtID,
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedMatches(ctx context.Context, userIDs, courtIDs []string) error {
	if len(userIDs) < 2 {
		return nil
	}

	matchCount := len(userIDs) / 2
	for i := 0; i < matchCount; i++ {
		creatorID := userIDs[s.faker.Number(0, len(userIDs)-1)]
		opponentID := userIDs[s.faker.Number(0, len(userIDs)-1)]
		if opponentID == creatorID {
			continue
		}

		scoreCreator := s.faker.Number(5, 21)
		scoreOpponent := s.faker.Number(5, 21)
		if scoreCreator == scoreOpponent {
			scoreCreator++
		}
		winnerID := creatorID
		if scoreOpponent > scoreCreator {
			winnerID = opponentID
		}

		var courtID sql.NullString
		if len(courtIDs) > 0 {
			courtID = sql.NullString{String: courtIDs[s.faker.Number(0, len(courtIDs)-1)], Valid: true}
		}

		createdAt := time.Now().Add(-time.Duration(s.faker.Number(0, 14*24)) * time.Hour)

		_, err := s.db.ExecContext(ctx,
			`INSERT INTO matches (id, creator_id, opponent_id, winner_id, court_id, score_creator, score_opponent, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, 'completed', $8)`,
			uuid.NewString(), creatorID, opponentID, winnerID, courtID, scoreCreator, scoreOpponent, createdAt,
		)
		if err != nil {
			return err
		}
	}

	teamMatchCount := matchCount / 2
	for i := 0; i < teamMatchCount; i++ {
		winnerID := userIDs[s.faker.Number(0, len(userIDs)-1)]
		scoreHome := s.faker.Number(30, 80)
		scoreAway := s.faker.Number(30, 80)
		if scoreHome == scoreAway {
			scoreHome++
		}

		var courtID sql.NullString
		if len(courtIDs) > 0 {
			courtID = sql.NullString{String: courtIDs[s.faker.Number(0, len(courtIDs)-1)], Valid: true}
		}

		createdAt := time.Now().Add(-time.Duration(s.faker.Number(0, 14*24)) * time.Hour)

		_, err := s.db.ExecContext(ctx,
			`INSERT INTO team_matches (id, winner_user_id, court_id, score_home, score_away, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, 'completed', $6)`,
			uuid.NewString(), winnerID, courtID, scoreHome, scoreAway, createdAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// pickDistinct はプールから最大n件の重複しない要素を選ぶ。
func pickDistinct(faker *gofakeit.Faker, pool []string, n int) []string {
	if len(pool) == 0 || n <= 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		candidate := pool[faker.Number(0, len(pool)-1)]
		if _, ok := seen[candidate]; ok {
			// プールが小さいと無限ループしうるので、衝突したら打ち切る
			break
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}
