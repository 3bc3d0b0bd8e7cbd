package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"
	"cloud.google.com/go/spanner/apiv1/spannerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ramzan118/gke-node-backend/internal/model"
)

const listUsersQuery = "SELECT UserId, Name, Email FROM Users"

// ListUsers returns every row of the Users table in the order Spanner yields
// them. An empty table yields an empty, non-nil slice.
func (r *Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	iter := r.q.query(ctx, spanner.Statement{SQL: listUsersQuery})
	defer iter.Stop()

	users := make([]model.User, 0)
	for {
		row, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return users, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		user, err := scanUser(row)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
}

// scanUser decodes the three columns without assuming their types.
func scanUser(row *spanner.Row) (model.User, error) {
	var id, name, email spanner.GenericColumnValue
	if err := row.Columns(&id, &name, &email); err != nil {
		return model.User{}, fmt.Errorf("failed to scan user: %w", err)
	}

	return model.User{
		UserID: jsonValue(id),
		Name:   jsonValue(name),
		Email:  jsonValue(email),
	}, nil
}

// jsonValue converts a column to its native JSON representation. INT64 and
// NUMERIC travel as strings on the wire and become json.Number so large
// values keep their precision.
func jsonValue(v spanner.GenericColumnValue) any {
	if v.Value == nil {
		return nil
	}
	if _, ok := v.Value.GetKind().(*structpb.Value_NullValue); ok {
		return nil
	}

	switch v.Type.GetCode() {
	case spannerpb.TypeCode_INT64, spannerpb.TypeCode_NUMERIC:
		if s, ok := v.Value.GetKind().(*structpb.Value_StringValue); ok {
			return json.Number(s.StringValue)
		}
	}
	return v.Value.AsInterface()
}
