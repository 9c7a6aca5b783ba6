package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Query is a PostgREST request on one table.
type Query struct {
	conn   *Conn
	table  string
	params url.Values
	single bool
}

// From starts a query on table as the connection's user.
func (c *Conn) From(table string) *Query {
	return &Query{conn: c, table: table, params: url.Values{}}
}

// Select sets the returned columns, including embedded relations
// such as "*,profiles(full_name,department)".
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

// Eq filters rows where column equals value.
func (q *Query) Eq(column string, value any) *Query {
	q.params.Add(column, fmt.Sprintf("eq.%v", value))
	return q
}

// Neq filters rows where column differs from value.
func (q *Query) Neq(column string, value any) *Query {
	q.params.Add(column, fmt.Sprintf("neq.%v", value))
	return q
}

// Order sorts by column.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

// Single expects exactly one row; zero rows fail with errs.ErrNotFound.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) path() string {
	return "/rest/v1/" + q.table
}

func (q *Query) headers(prefer string) map[string]string {
	h := map[string]string{}
	if prefer != "" {
		h["Prefer"] = prefer
	}
	if q.single {
		h["Accept"] = "application/vnd.pgrst.object+json"
	}
	return h
}

// Execute runs a select and decodes the rows (or the single row) into dst.
func (q *Query) Execute(ctx context.Context, dst any) error {
	return q.send(ctx, http.MethodGet, "", nil, dst)
}

// Insert inserts record and decodes the created rows into dst.
func (q *Query) Insert(ctx context.Context, record, dst any) error {
	return q.send(ctx, http.MethodPost, representation(dst), record, dst)
}

// Upsert inserts record unless a row with the same onConflict key exists,
// in which case the existing row is left untouched and nothing is returned.
func (q *Query) Upsert(ctx context.Context, record any, onConflict string, dst any) error {
	q.params.Set("on_conflict", onConflict)
	return q.send(ctx, http.MethodPost, "resolution=ignore-duplicates,"+representation(dst), record, dst)
}

// Update applies patch to the filtered rows and decodes them into dst.
func (q *Query) Update(ctx context.Context, patch, dst any) error {
	return q.send(ctx, http.MethodPatch, representation(dst), patch, dst)
}

func (q *Query) send(ctx context.Context, method, prefer string, body, dst any) error {
	token, err := q.conn.accessToken(ctx)
	if err != nil {
		return err
	}
	return q.conn.c.do(ctx, request{
		method:  method,
		path:    q.path(),
		query:   q.params,
		headers: q.headers(prefer),
		token:   token,
		body:    body,
	}, dst)
}

func representation(dst any) string {
	if dst == nil {
		return "return=minimal"
	}
	return "return=representation"
}
