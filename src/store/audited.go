package store

import (
	"context"
	"encoding/json"
	"time"

	logger "github.com/sirupsen/logrus"

	"halalinvest/src/ledger"
	"halalinvest/src/model"
)

// ExceptionRecorder persists failures for later inspection.
type ExceptionRecorder interface {
	Create(ctx context.Context, exc *model.Exception) error
}

// SnapshotStore is the pair of operations the account registry needs.
type SnapshotStore interface {
	ledger.Sink
	Load(ctx context.Context, accountID uint) (*ledger.Snapshot, error)
}

// Audited wraps a snapshot store and records every failed call as an
// exception. Errors are still returned to the caller unchanged.
type Audited struct {
	inner    SnapshotStore
	recorder ExceptionRecorder
	module   string
}

func NewAudited(inner SnapshotStore, recorder ExceptionRecorder, module string) *Audited {
	return &Audited{inner: inner, recorder: recorder, module: module}
}

func (a *Audited) Save(ctx context.Context, snapshot ledger.Snapshot) error {
	err := a.inner.Save(ctx, snapshot)
	if err != nil {
		a.record(ctx, "Save", err, map[string]interface{}{
			"account_id": snapshot.AccountID,
			"version":    snapshot.Version,
		})
	}
	return err
}

func (a *Audited) Load(ctx context.Context, accountID uint) (*ledger.Snapshot, error) {
	snapshot, err := a.inner.Load(ctx, accountID)
	if err != nil {
		a.record(ctx, "Load", err, map[string]interface{}{"account_id": accountID})
	}
	return snapshot, err
}

func (a *Audited) record(ctx context.Context, method string, cause error, fields map[string]interface{}) {
	raw, err := json.Marshal(fields)
	if err != nil {
		raw = []byte("{}")
	}
	exc := &model.Exception{
		Service:   "halalinvest",
		Module:    a.module,
		Method:    method,
		Message:   cause.Error(),
		Level:     "error",
		Context:   string(raw),
		CreatedAt: time.Now().UTC(),
	}
	if err := a.recorder.Create(context.WithoutCancel(ctx), exc); err != nil {
		logger.WithFields(fields).WithError(err).Warn("Failed to record snapshot store exception")
	}
}
