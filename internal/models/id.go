package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh 24-character hex object id.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed object id.
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
