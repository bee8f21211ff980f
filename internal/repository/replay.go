package repo

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"goreview/internal/bootstrap"
	"goreview/internal/domain/game"
	ownErrors "goreview/internal/errors"
)

const gamesCollection = "games"

// ReplayRepository keeps game records in Mongo and the live SGF
// snapshot of each game in Redis, keyed by the secret game key.
type ReplayRepository struct {
	cfg   bootstrap.Config
	log   *zap.SugaredLogger
	redis *redis.Client
	mongo *mongo.Database
}

func NewReplayRepository(cfg bootstrap.Config, log *zap.SugaredLogger, redis *redis.Client, mongo *mongo.Database) *ReplayRepository {
	return &ReplayRepository{
		cfg:   cfg,
		log:   log,
		redis: redis,
		mongo: mongo,
	}
}

// GenerateGameKeys returns a fresh secret key and a short public key
// derived from it. The public key is retried until unique.
func (r *ReplayRepository) GenerateGameKeys(ctx context.Context) (gameKeySecret string, gameKeyPublic string) {
	gameKeySecret = uuid.New().String()
	for {
		gameKeyPublic = generateShortCode(gameKeySecret + gameKeyPublic)
		if r.isPublicKeyUnique(ctx, gameKeyPublic) {
			return gameKeySecret, gameKeyPublic
		}
	}
}

func generateShortCode(s string) string {
	h := md5.New()
	h.Write([]byte(s))
	hashBytes := h.Sum(nil)
	number := binary.BigEndian.Uint32(hashBytes[:4])
	code := number % 100000
	return fmt.Sprintf("%05d", code)
}

func (r *ReplayRepository) isPublicKeyUnique(ctx context.Context, gameKeyPublic string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	collection := r.mongo.Collection(gamesCollection)
	filter := bson.M{
		"game_key_public": gameKeyPublic,
	}
	err := collection.FindOne(ctx, filter).Err()
	return errors.Is(err, mongo.ErrNoDocuments)
}

func (r *ReplayRepository) PutGame(ctx context.Context, gameData game.Game) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := r.mongo.Collection(gamesCollection)

	if _, err := collection.InsertOne(ctx, gameData); err != nil {
		r.log.Errorf("failed to insert game: %v", err)
		return err
	}

	r.log.Infof("game inserted with public key %s", gameData.GameKeyPublic)
	return nil
}

// UpdateGame replaces the mutable fields of the record: the move log,
// status, winner and finish time.
func (r *ReplayRepository) UpdateGame(ctx context.Context, gameData game.Game) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := r.mongo.Collection(gamesCollection)

	filter := bson.M{"game_key_secret": gameData.GameKeySecret}
	update := bson.M{
		"$set": bson.M{
			"moves":       gameData.Moves,
			"status":      gameData.Status,
			"winner":      gameData.Winner,
			"finished_at": gameData.FinishedAt,
		},
	}

	opts := options.Update().SetUpsert(false)
	res, err := collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		r.log.Errorf("failed to update game: %v", err)
		return err
	}
	if res.MatchedCount == 0 {
		return ownErrors.ErrGameNotFound
	}
	return nil
}

func (r *ReplayRepository) GetGameByPublicKey(ctx context.Context, gameKeyPublic string) (game.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := r.mongo.Collection(gamesCollection)
	filter := bson.M{"game_key_public": gameKeyPublic}

	foundGame := game.Game{}
	err := collection.FindOne(ctx, filter).Decode(&foundGame)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return game.Game{}, ownErrors.ErrGameNotFound
	} else if err != nil {
		r.log.Error(err)
		return game.Game{}, err
	}

	return foundGame, nil
}

func (r *ReplayRepository) SaveSGF(ctx context.Context, gameKeySecret string, sgfText string) error {
	return r.redis.Set(ctx, sgfKey(gameKeySecret), sgfText, 0).Err()
}

func (r *ReplayRepository) LoadSGF(ctx context.Context, gameKeySecret string) (string, error) {
	text, err := r.redis.Get(ctx, sgfKey(gameKeySecret)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ownErrors.ErrGameNotFound
	}
	return text, err
}

func sgfKey(gameKeySecret string) string {
	return "sgf:" + gameKeySecret
}
