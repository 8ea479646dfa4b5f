// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/assurance/internal/app/store/audit"
	claimstore "github.com/dalemusser/assurance/internal/app/store/claims"
	policystore "github.com/dalemusser/assurance/internal/app/store/policies"
	userstore "github.com/dalemusser/assurance/internal/app/store/users"
	"github.com/dalemusser/assurance/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure(userstore.Collection, usersSchema())
	ensure(policystore.Collection, policiesSchema())
	ensure(claimstore.Collection, claimsSchema())

	// Audit events are written by the logger only; no validator.
	ensure(audit.Collection, nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func enum[T ~string](values []T) bson.A {
	out := make(bson.A, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "password_hash", "status", "is_active"},
			"properties": bson.M{
				"name":           bson.M{"bsonType": "string", "minLength": 2, "maxLength": 50},
				"email":          bson.M{"bsonType": "string", "pattern": "^[^A-Z]+$"},
				"password_hash":  nonBlank,
				"status":         bson.M{"enum": enum([]models.UserTier{models.TierNew, models.TierStandard, models.TierPremium, models.TierVIP})},
				"is_active":      bson.M{"bsonType": "bool"},
				"login_attempts": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"lock_until":     bson.M{"bsonType": bson.A{"date", "null"}},
				"client_since":   bson.M{"bsonType": "date"},
			},
		},
	}
}

func policiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"policy_number", "user_id", "type", "status", "dates", "financial", "coverage"},
			"properties": bson.M{
				"policy_number": nonBlank,
				"user_id":       bson.M{"bsonType": "objectId"},
				"type":          bson.M{"enum": enum(models.PolicyTypes)},
				"status":        bson.M{"enum": enum(models.PolicyStatuses)},
				"coverage": bson.M{
					"bsonType": "object",
					"required": bson.A{"rc_obligatoire"},
					"properties": bson.M{
						"rc_obligatoire": bson.M{"enum": bson.A{true}},
					},
				},
				"dates": bson.M{
					"bsonType": "object",
					"required": bson.A{"start_date", "end_date", "renewal_date"},
					"properties": bson.M{
						"start_date":   bson.M{"bsonType": "date"},
						"end_date":     bson.M{"bsonType": "date"},
						"renewal_date": bson.M{"bsonType": "date"},
					},
				},
				"financial": bson.M{
					"bsonType": "object",
					"required": bson.A{"premium", "franchise", "taxes"},
					"properties": bson.M{
						"premium":   bson.M{"bsonType": "double", "minimum": 0, "exclusiveMinimum": true},
						"franchise": bson.M{"bsonType": "double", "minimum": 0},
						"taxes":     bson.M{"bsonType": "double", "minimum": 0},
					},
				},
				"notes": bson.M{"bsonType": "string", "maxLength": 1000},
			},
		},
	}
}

func claimsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"claim_number", "user_id", "policy_id", "type", "status", "priority", "damages", "timeline"},
			"properties": bson.M{
				"claim_number": nonBlank,
				"user_id":      bson.M{"bsonType": "objectId"},
				"policy_id":    bson.M{"bsonType": "objectId"},
				"type":         bson.M{"enum": enum(models.ClaimTypes)},
				"status":       bson.M{"enum": enum(models.ClaimStatuses)},
				"priority":     bson.M{"enum": enum(models.Priorities)},
				"damages": bson.M{
					"bsonType": "object",
					"required": bson.A{"estimated_amount", "details"},
					"properties": bson.M{
						"estimated_amount": bson.M{"bsonType": "double", "minimum": 0, "exclusiveMinimum": true},
						"details": bson.M{
							"bsonType": "array",
							"minItems": models.MinDamageLines,
							"maxItems": models.MaxDamageLines,
						},
					},
				},
				"incident": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"witnesses": bson.M{"bsonType": "array", "maxItems": models.MaxWitnesses},
					},
				},
				"timeline": bson.M{"bsonType": "array", "minItems": 1},
			},
		},
	}
}
