package database

import (
	"context"
	"errors"
	"fmt"
	"invitetrack/entity"
	"invitetrack/internal/config"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionLedger = "ledger"
	connectTimeout   = 10 * time.Second
)

type MongoDB struct {
	client   *mongo.Client
	database string
}

// NewMongoClient connects to the configured server and makes sure the
// user_id and invite_code indexes exist. Returns nil when mongo is disabled.
func NewMongoClient(ctx context.Context, conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	m := &MongoDB{
		client:   client,
		database: conf.Mongo.Database,
	}
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{"user_id", 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{"invite_code", 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	if _, err = m.ledger().Indexes().CreateMany(ctx, indexes); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb index: %w", err)
	}
	return m, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) ledger() *mongo.Collection {
	return m.client.Database(m.database).Collection(collectionLedger)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find: %w", err)
}

// defaultsStage fills missing counters so that arithmetic in later stages
// works on freshly upserted documents.
func defaultsStage(userId string) bson.D {
	return bson.D{{"$set", bson.D{
		{"user_id", userId},
		{"invites", bson.D{{"$ifNull", bson.A{"$invites", 0}}}},
		{"bonus", bson.D{{"$ifNull", bson.A{"$bonus", 0.0}}}},
	}}}
}

// earningsStage rewrites total_earnings from invites and bonus.
func earningsStage() bson.D {
	return bson.D{{"$set", bson.D{
		{"total_earnings", bson.D{{"$add", bson.A{
			bson.D{{"$multiply", bson.A{"$invites", entity.RewardPerInvite}}},
			"$bonus",
		}}}},
	}}}
}

// updateEntry runs a pipeline update on one entry and returns the document after it.
// A duplicate key error from two racing upserts of the same new user is retried once;
// the second attempt matches the document the other writer inserted.
func (m *MongoDB) updateEntry(ctx context.Context, userId string, pipeline mongo.Pipeline, upsert bool) (*entity.LedgerEntry, error) {
	filter := bson.D{{"user_id", userId}}
	opts := options.FindOneAndUpdate().
		SetUpsert(upsert).
		SetReturnDocument(options.After)

	var entry entity.LedgerEntry
	err := m.ledger().FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&entry)
	if upsert && mongo.IsDuplicateKeyError(err) {
		err = m.ledger().FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&entry)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongodb update: %w", err)
	}
	return &entry, nil
}

func (m *MongoDB) GetLedgerEntry(ctx context.Context, userId string) (*entity.LedgerEntry, error) {
	filter := bson.D{{"user_id", userId}}
	var entry entity.LedgerEntry
	err := m.ledger().FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		return nil, m.findError(err)
	}
	return &entry, nil
}

func (m *MongoDB) IncrementInvites(ctx context.Context, userId, username string) (*entity.LedgerEntry, error) {
	inc := bson.D{{"invites", bson.D{{"$add", bson.A{"$invites", 1}}}}}
	if username != "" {
		inc = append(inc, bson.E{Key: "username", Value: username})
	}
	pipeline := mongo.Pipeline{
		defaultsStage(userId),
		{{"$set", inc}},
		earningsStage(),
	}
	return m.updateEntry(ctx, userId, pipeline, true)
}

func (m *MongoDB) DecrementInvites(ctx context.Context, userId string) (*entity.LedgerEntry, error) {
	pipeline := mongo.Pipeline{
		defaultsStage(userId),
		{{"$set", bson.D{
			{"invites", bson.D{{"$max", bson.A{
				bson.D{{"$subtract", bson.A{"$invites", 1}}},
				0,
			}}}},
		}}},
		earningsStage(),
	}
	return m.updateEntry(ctx, userId, pipeline, false)
}

func (m *MongoDB) SetInvitedBy(ctx context.Context, userId, inviterId string) error {
	pipeline := mongo.Pipeline{
		defaultsStage(userId),
		{{"$set", bson.D{{"invited_by", inviterId}}}},
		earningsStage(),
	}
	_, err := m.updateEntry(ctx, userId, pipeline, true)
	return err
}

func (m *MongoDB) SetBonus(ctx context.Context, userId string, bonus float64) (*entity.LedgerEntry, error) {
	pipeline := mongo.Pipeline{
		defaultsStage(userId),
		{{"$set", bson.D{{"bonus", bonus}}}},
		earningsStage(),
	}
	return m.updateEntry(ctx, userId, pipeline, true)
}

func (m *MongoDB) DeleteLedgerEntry(ctx context.Context, userId string) error {
	filter := bson.D{{"user_id", userId}}
	_, err := m.ledger().DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("mongodb delete: %w", err)
	}
	return nil
}

func (m *MongoDB) SetInviteCode(ctx context.Context, userId, code string) error {
	pipeline := mongo.Pipeline{
		defaultsStage(userId),
		{{"$set", bson.D{{"invite_code", code}}}},
		earningsStage(),
	}
	_, err := m.updateEntry(ctx, userId, pipeline, true)
	return err
}

func (m *MongoDB) FindByInviteCode(ctx context.Context, code string) (*entity.LedgerEntry, error) {
	if code == "" {
		return nil, nil
	}
	filter := bson.D{{"invite_code", code}}
	var entry entity.LedgerEntry
	err := m.ledger().FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		return nil, m.findError(err)
	}
	return &entry, nil
}

// TopLedgerEntries returns entries by invites descending; _id keeps ties in insertion order.
func (m *MongoDB) TopLedgerEntries(ctx context.Context, limit int) ([]*entity.LedgerEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{"invites", -1}, {"_id", 1}}).
		SetLimit(int64(limit))
	cursor, err := m.ledger().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*entity.LedgerEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("mongodb cursor: %w", err)
	}
	return entries, nil
}
