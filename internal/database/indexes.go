package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := db.Collection("users").Indexes().CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	return nil
}

func EnsureLeadIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_index"),
		},
		{
			Keys:    bson.D{{Key: "assignedAgent", Value: 1}, {Key: "archived", Value: 1}},
			Options: options.Index().SetName("agent_archived_index"),
		},
		{
			Keys:    bson.D{{Key: "updatedAt", Value: -1}},
			Options: options.Index().SetName("updatedAt_index"),
		},
	}

	log.Println("EnsureLeadIndexes: creating lead indexes")
	_, err := db.Collection("leads").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Println("EnsureLeadIndexes: lead index error:", err)
		return err
	}
	return nil
}

func EnsureRefreshTokenIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tokenHash", Value: 1}},
			Options: options.Index().
				SetName("tokenHash_unique").
				SetUnique(true),
		},
		{
			// Mongo garbage-collects expired tokens on its own.
			Keys: bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().
				SetName("expiresAt_ttl").
				SetExpireAfterSeconds(0),
		},
	}

	log.Println("EnsureRefreshTokenIndexes: creating refresh token indexes")
	_, err := db.Collection("refresh_tokens").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Println("EnsureRefreshTokenIndexes: refresh token index error:", err)
		return err
	}
	return nil
}

func EnsureActivityIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
		{
			Keys:    bson.D{{Key: "actor", Value: 1}},
			Options: options.Index().SetName("actor_index"),
		},
	}

	log.Println("EnsureActivityIndexes: creating activity indexes")
	_, err := db.Collection("activities").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Println("EnsureActivityIndexes: activity index error:", err)
		return err
	}
	return nil
}
