// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a MongoDB transaction. fn must use the ctx it is
// given so its operations join the session, and inTx tells it whether a
// transaction is in fact open.
//
// Standalone servers do not support transactions. When the server reports
// that, fn is run once more without a transaction (inTx false) and fn is
// responsible for any compensating writes. Inside a transaction a failed fn
// is rolled back by the server and must not compensate.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context, inTx bool) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Warn("transactions unavailable; running without", zap.Error(err))
			return fn(ctx, false)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, true)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions unavailable; running without", zap.Error(err))
		return fn(ctx, false)
	}
	return err
}

// Runner binds Run to a database so it can be passed where an interface
// with a single Run method is expected.
type Runner struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// Run implements the transaction runner used by the lifecycle engines.
func (r Runner) Run(ctx context.Context, fn func(ctx context.Context, inTx bool) error) error {
	return Run(ctx, r.DB, r.Log, fn)
}

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions (standalone mongod, some DocumentDB setups).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // returned when transactions are unavailable
			return true
		}
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "transaction") && strings.Contains(s, "replica set"):
		return true
	case strings.Contains(s, "session") && strings.Contains(s, "not supported"):
		return true
	case strings.Contains(s, "transaction") && strings.Contains(s, "session"):
		return true
	case strings.Contains(s, "illegal operation"):
		return true
	}
	return false
}
