package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainuser "geargrab/internal/domain/user"
)

type UserDirectory struct {
	col *mongo.Collection
}

func NewUserDirectory(db *mongo.Database) *UserDirectory {
	return &UserDirectory{col: db.Collection("users")}
}

type userDocument struct {
	ID          string `bson:"_id"`
	Email       string `bson:"email"`
	DisplayName string `bson:"display_name,omitempty"`
}

func (r *UserDirectory) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return &domainuser.User{ID: domainuser.ID(doc.ID), Email: doc.Email, DisplayName: doc.DisplayName}, nil
}

func (r *UserDirectory) Save(ctx context.Context, u *domainuser.User) error {
	if u == nil || u.ID == "" {
		return domainuser.ErrIDRequired
	}
	doc := userDocument{ID: string(u.ID), Email: u.Email, DisplayName: u.DisplayName}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

var _ domainuser.Directory = (*UserDirectory)(nil)
