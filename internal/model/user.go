// Package model defines domain entities for the application.
package model

// User is a row of the Users table, passed through to API clients unchanged.
// The schema is owned by the database, so each field holds the column value
// in its JSON form: string, json.Number for INT64, bool, nil for NULL.
type User struct {
	UserID any `json:"UserId"`
	Name   any `json:"Name"`
	Email  any `json:"Email"`
}
