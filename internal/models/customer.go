package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Note is an immutable comment attached to a customer, newest first.
type Note struct {
	Text      string             `bson:"text" json:"text"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Deal captures a sales opportunity attached to a customer.
type Deal struct {
	Title string  `bson:"title" json:"title"`
	Value float64 `bson:"value" json:"value"`
	Stage string  `bson:"stage" json:"stage"`
}

// Customer is a converted or directly-created account. Owner scopes agent
// access the same way Lead.AssignedAgent does.
type Customer struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name      string              `bson:"name" json:"name"`
	Company   string              `bson:"company" json:"company"`
	Email     string              `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Notes     []Note              `bson:"notes" json:"notes"`
	Tags      []string            `bson:"tags" json:"tags"`
	Owner     *primitive.ObjectID `bson:"owner,omitempty" json:"owner,omitempty"`
	Deals     []Deal              `bson:"deals" json:"deals"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}
