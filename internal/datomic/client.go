// Package datomic is a client for the Datomic REST peer.
//
// It creates and lists databases under one storage alias, submits
// transaction bodies built by package tx and runs queries built by
// package query. Responses are decoded from EDN.
//
// Calls are synchronous and never retried. A response with an
// unexpected status is returned as a *StatusError marked errs.ErrStatus.
package datomic

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/errs"
	"github.com/roach88/patomic/internal/store"
)

// DefaultConnectTimeout bounds connection setup, not the whole request.
const DefaultConnectTimeout = 5 * time.Second

const (
	TraceAttributeAlias    string = "datomic-alias"
	TraceAttributeDatabase string = "datomic-database"
)

var tracer = otel.Tracer("patomic-datomic-client")

// Journal records submitted work. *store.Store implements it.
type Journal interface {
	RecordTransaction(ctx context.Context, e store.TransactionEntry) (store.TransactionEntry, error)
	RecordQuery(ctx context.Context, e store.QueryEntry) (store.QueryEntry, error)
}

// StatusError is a response whose status the call did not expect.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("HTTP status code %d returned", e.Code)
	}
	return fmt.Sprintf("HTTP status code %d returned: %s", e.Code, body)
}

// Client talks to one REST peer. It is safe for concurrent use once the
// database has been selected.
type Client struct {
	cfg            Config
	database       string
	httpClient     *http.Client
	connectTimeout time.Duration
	log            *zap.SugaredLogger
	journal        Journal
	codec          edn.Codec
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger. The default discards everything.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithJournal records every transaction and query after its response.
func WithJournal(j Journal) Option {
	return func(c *Client) { c.journal = j }
}

// WithConnectTimeout overrides DefaultConnectTimeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) { c.connectTimeout = d }
}

// WithCodec replaces the codec used to decode responses.
func WithCodec(codec edn.Codec) Option {
	return func(c *Client) { c.codec = codec }
}

// New validates cfg and returns a client with no database selected.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:            cfg,
		connectTimeout: DefaultConnectTimeout,
		log:            zap.NewNop().Sugar(),
		codec:          edn.Standard{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient(c.connectTimeout)
	}
	c.log = c.log.With("alias", cfg.Alias, "storage", cfg.Storage)
	return c, nil
}

func newHTTPClient(connectTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DialContext = dialer.DialContext
	return &http.Client{Transport: otelhttp.NewTransport(base)}
}

// Config returns the validated configuration.
func (c *Client) Config() Config { return c.cfg }

// SetDatabase selects the database for transactions and queries.
// Names are lower-cased.
func (c *Client) SetDatabase(name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.Validation("datomic.SetDatabase", errs.ErrMissingArgument, "dbName must be a non-empty string")
	}
	c.database = lower(name)
	c.log.Infow("database selected", "database", c.database)
	return nil
}

// Database returns the selected database, or "".
func (c *Client) Database() string { return c.database }

func (c *Client) requireDatabase(tag string) error {
	if c.database == "" {
		return errs.Validation(tag, errs.ErrSequence, "select a database with SetDatabase first")
	}
	return nil
}

// CreateDatabase creates name under the alias. It reports true when the
// peer created it and false when it already existed.
func (c *Client) CreateDatabase(ctx context.Context, name string) (created bool, err error) {
	if strings.TrimSpace(name) == "" {
		return false, errs.Validation("datomic.CreateDatabase", errs.ErrMissingArgument, "dbName must be a non-empty string")
	}
	name = lower(name)

	ctx, span := tracer.Start(ctx, "create-database",
		trace.WithAttributes(attribute.String(TraceAttributeAlias, c.cfg.Alias)),
		trace.WithAttributes(attribute.String(TraceAttributeDatabase, name)),
	)
	defer func() { endSpan(span, err) }()

	form := url.Values{"db-name": {name}}
	code, body, err := c.do(ctx, http.MethodPost, c.aliasURL(), strings.NewReader(form.Encode()), formHeaders())
	if err != nil {
		return false, err
	}

	switch code {
	case http.StatusCreated:
		c.log.Infow("database created", "database", name)
		return true, nil
	case http.StatusOK:
		c.log.Warnw("database already exists", "database", name)
		return false, nil
	}
	err = statusError(code, body)
	return false, err
}

// DatabaseNames lists the databases under the alias.
func (c *Client) DatabaseNames(ctx context.Context) (names []string, err error) {
	ctx, span := tracer.Start(ctx, "list-databases",
		trace.WithAttributes(attribute.String(TraceAttributeAlias, c.cfg.Alias)),
	)
	defer func() { endSpan(span, err) }()

	code, body, err := c.do(ctx, http.MethodGet, c.aliasURL(), nil, ednHeaders())
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		err = statusError(code, body)
		return nil, err
	}

	vals, err := c.codec.Parse(body)
	if err != nil {
		err = decodeError(err, "database names")
		return nil, err
	}
	names = []string{}
	if len(vals) == 0 {
		return names, nil
	}
	elems, ok := seqOf(vals[0])
	if !ok {
		err = errs.Mark(errs.Newf("database names: expected a vector, got %s", c.codec.Encode(vals[0])), errs.ErrDecode)
		return nil, err
	}
	for _, v := range elems {
		names = append(names, plain(v))
	}
	return names, nil
}

func (c *Client) aliasURL() string {
	return c.cfg.DataURL() + url.PathEscape(c.cfg.Alias) + "/"
}

func (c *Client) databaseURL(db string) string {
	return c.aliasURL() + url.PathEscape(db) + "/"
}

func formHeaders() http.Header {
	return http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
}

func ednHeaders() http.Header {
	return http.Header{"Accept": {"application/edn"}}
}

// do sends one request and reads the whole body.
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, headers http.Header) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, "", errs.Mark(errs.Wrap(err, "failed to create request"), errs.ErrRequest)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	c.log.Debugw("sending request", "method", method, "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", errs.Mark(errs.Wrapf(err, "failed to send %s request", method), errs.ErrRequest)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", errs.Mark(errs.Wrap(err, "failed to read response body"), errs.ErrDecode)
	}
	c.log.Debugw("received response", "method", method, "url", endpoint, "status", resp.StatusCode)
	return resp.StatusCode, string(respBody), nil
}

func statusError(code int, body string) error {
	return errs.Mark(&StatusError{Code: code, Body: body}, errs.ErrStatus)
}

func decodeError(err error, what string) error {
	return errs.Mark(errs.Wrapf(err, "failed to decode %s", what), errs.ErrDecode)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// seqOf returns the elements of a vector, list or set. Some peers answer
// queries with a set of tuples.
func seqOf(v edn.Value) ([]edn.Value, bool) {
	switch s := v.(type) {
	case edn.Vector:
		return s, true
	case edn.List:
		return s, true
	case edn.Set:
		return s, true
	}
	return nil, false
}

// plain renders strings without quotes and everything else as EDN.
func plain(v edn.Value) string {
	if s, ok := v.(edn.String); ok {
		return string(s)
	}
	return edn.Encode(v)
}
