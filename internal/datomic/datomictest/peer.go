// Package datomictest runs an in-process fake of the Datomic REST peer
// for tests. It keeps databases and transaction bodies in memory and
// answers queries with canned rows.
package datomictest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/patomic/internal/datomic"
	"github.com/roach88/patomic/internal/edn"
)

// QueryRequest is one query the peer received.
type QueryRequest struct {
	Query  string
	Args   string
	Limit  string
	Offset string
	Accept string
}

// Peer is a running fake peer.
type Peer struct {
	Alias string

	srv *httptest.Server

	mu           sync.Mutex
	databases    []string
	transactions map[string][]string
	queries      []QueryRequest
	rows         edn.Value
	failStatus   int
	basisT       int64
}

// NewPeer starts a fake peer serving alias. It is closed with the test.
func NewPeer(t testing.TB, alias string) *Peer {
	t.Helper()
	p := &Peer{
		Alias:        alias,
		transactions: map[string][]string{},
		rows:         edn.Vector{},
		basisT:       1000,
	}
	p.srv = httptest.NewServer(p.routes())
	t.Cleanup(p.srv.Close)
	return p
}

// URL is the base URL, scheme and host included.
func (p *Peer) URL() string { return p.srv.URL }

// Config returns a client configuration pointing at the peer.
func (p *Peer) Config() datomic.Config {
	u, _ := url.Parse(p.srv.URL)
	port, _ := strconv.Atoi(u.Port())
	return datomic.Config{
		ServerURL: u.Scheme + "://" + u.Hostname(),
		Port:      port,
		Storage:   "mem",
		Alias:     p.Alias,
	}
}

// AddDatabase creates name as if a client had.
func (p *Peer) AddDatabase(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !slices.Contains(p.databases, name) {
		p.databases = append(p.databases, name)
	}
}

// Databases returns the database names in creation order.
func (p *Peer) Databases() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.databases)
}

// Transactions returns the bodies committed to db, in order.
func (p *Peer) Transactions(db string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.transactions[db])
}

// Queries returns every query received, in order.
func (p *Peer) Queries() []QueryRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.queries)
}

// SetRows sets the answer to every following query.
func (p *Peer) SetRows(rows edn.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = rows
}

// FailNext makes the next request answer with status and no body.
func (p *Peer) FailNext(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failStatus = status
}

func (p *Peer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(p.injectFailure)
	r.Route("/data/{alias}", func(r chi.Router) {
		r.Use(p.requireAlias)
		r.Post("/", p.createDatabase)
		r.Get("/", p.listDatabases)
		r.Post("/{db}/", p.transact)
	})
	r.Get("/api/query", p.query)
	return r
}

func (p *Peer) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		status := p.failStatus
		p.failStatus = 0
		p.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Peer) requireAlias(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "alias") != p.Alias {
			http.Error(w, "unknown alias", http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Peer) createDatabase(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("db-name")
	if name == "" {
		http.Error(w, "db-name is required", http.StatusBadRequest)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if slices.Contains(p.databases, name) {
		w.WriteHeader(http.StatusOK)
		return
	}
	p.databases = append(p.databases, name)
	w.WriteHeader(http.StatusCreated)
}

func (p *Peer) listDatabases(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	names := make(edn.Vector, len(p.databases))
	for i, n := range p.databases {
		names[i] = edn.String(n)
	}
	p.mu.Unlock()
	writeEDN(w, http.StatusOK, names)
}

func (p *Peer) transact(w http.ResponseWriter, r *http.Request) {
	db := chi.URLParam(r, "db")
	body := r.PostFormValue("tx-data")
	if _, err := edn.Parse(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !slices.Contains(p.databases, db) {
		http.Error(w, "database not found", http.StatusNotFound)
		return
	}
	p.transactions[db] = append(p.transactions[db], body)
	before := p.basisT
	p.basisT++

	resp := edn.NewMap().
		Set(edn.Keyword("db-before"), edn.NewMap().Set(edn.Keyword("basis-t"), edn.Int(before))).
		Set(edn.Keyword("db-after"), edn.NewMap().Set(edn.Keyword("basis-t"), edn.Int(p.basisT))).
		Set(edn.Keyword("tx-data"), edn.Vector{}).
		Set(edn.Keyword("tempids"), edn.NewMap())
	writeEDN(w, http.StatusCreated, resp)
}

func (p *Peer) query(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	req := QueryRequest{
		Query:  params.Get("q"),
		Args:   params.Get("args"),
		Limit:  params.Get("limit"),
		Offset: params.Get("offset"),
		Accept: r.Header.Get("Accept"),
	}
	if _, err := edn.Parse(req.Query); err != nil {
		http.Error(w, "malformed q: "+err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := edn.Parse(req.Args); err != nil {
		http.Error(w, "malformed args: "+err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.queries = append(p.queries, req)
	rows := p.rows
	p.mu.Unlock()
	writeEDN(w, http.StatusOK, rows)
}

func writeEDN(w http.ResponseWriter, status int, v edn.Value) {
	w.Header().Set("Content-Type", "application/edn")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(edn.Encode(v)))
}
