// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"cloud.google.com/go/spanner"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// SeedUser is one row written by ResetUsers.
type SeedUser struct {
	UserID string
	Name   spanner.NullString
	Email  spanner.NullString
}

// ResetUsers replaces the contents of the Users table with users.
func ResetUsers(ctx context.Context, client *spanner.Client, users []SeedUser) error {
	mutations := []*spanner.Mutation{spanner.Delete("Users", spanner.AllKeys())}
	for _, u := range users {
		mutations = append(mutations, spanner.InsertOrUpdate(
			"Users",
			[]string{"UserId", "Name", "Email"},
			[]interface{}{u.UserID, u.Name, u.Email},
		))
	}

	if _, err := client.Apply(ctx, mutations); err != nil {
		return fmt.Errorf("reset users: %w", err)
	}
	return nil
}
