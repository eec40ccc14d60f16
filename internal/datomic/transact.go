package datomic

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/errs"
	"github.com/roach88/patomic/internal/store"
	"github.com/roach88/patomic/internal/tx"
)

// TxReport is the peer's answer to a committed transaction.
type TxReport struct {
	Database string
	Raw      string
	// Response is the decoded answer, nil when it was not valid EDN.
	Response edn.Value
}

// TempIDs returns the :tempids map of the response, if any.
func (r *TxReport) TempIDs() *edn.Map {
	m, ok := r.Response.(*edn.Map)
	if !ok {
		return nil
	}
	v, ok := m.Get(edn.Keyword("tempids"))
	if !ok {
		return nil
	}
	ids, _ := v.(*edn.Map)
	return ids
}

// Transact submits t to the selected database.
func (c *Client) Transact(ctx context.Context, t *tx.Transaction) (*TxReport, error) {
	if t == nil {
		return nil, errs.Validation("datomic.Transact", errs.ErrMissingArgument, "transaction must not be nil")
	}
	if err := t.Err(); err != nil {
		return nil, errs.Wrap(err, "datomic.Transact")
	}
	if err := c.requireDatabase("datomic.Transact"); err != nil {
		return nil, err
	}
	return c.transact(ctx, c.database, t.Source(), t.String())
}

// Resubmit posts an already rendered body to database. Journal replay
// uses it to copy history into another database.
func (c *Client) Resubmit(ctx context.Context, database, body string) error {
	if strings.TrimSpace(database) == "" {
		return errs.Validation("datomic.Resubmit", errs.ErrMissingArgument, "dbName must be a non-empty string")
	}
	_, err := c.transact(ctx, lower(database), "", body)
	return err
}

func (c *Client) transact(ctx context.Context, db, source, body string) (report *TxReport, err error) {
	ctx, span := tracer.Start(ctx, "transact",
		trace.WithAttributes(attribute.String(TraceAttributeAlias, c.cfg.Alias)),
		trace.WithAttributes(attribute.String(TraceAttributeDatabase, db)),
	)
	defer func() { endSpan(span, err) }()

	form := url.Values{"tx-data": {body}}
	code, respBody, err := c.do(ctx, http.MethodPost, c.databaseURL(db), strings.NewReader(form.Encode()), formHeaders())
	if err != nil {
		return nil, err
	}

	c.recordTransaction(ctx, store.TransactionEntry{
		Database:  db,
		Source:    source,
		Body:      body,
		Status:    code,
		Committed: code == http.StatusCreated,
		Response:  respBody,
	})

	if code != http.StatusCreated {
		c.log.Warnw("transaction rejected", "database", db, "status", code)
		err = statusError(code, respBody)
		return nil, err
	}

	report = &TxReport{Database: db, Raw: respBody}
	vals, perr := c.codec.Parse(respBody)
	switch {
	case perr != nil:
		c.log.Debugw("transaction response is not EDN", "error", perr)
	case len(vals) > 0:
		report.Response = vals[0]
	}
	c.log.Infow("transaction committed", "database", db, "source", source)
	return report, nil
}

func (c *Client) recordTransaction(ctx context.Context, e store.TransactionEntry) {
	if c.journal == nil {
		return
	}
	if _, err := c.journal.RecordTransaction(ctx, e); err != nil {
		c.log.Warnw("failed to journal transaction", "database", e.Database, "error", err)
	}
}
