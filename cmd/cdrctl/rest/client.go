// Package rest is the cdr server client used by cdrctl.
package rest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	kprof "github.com/carestack/cdr/cmd/cdrctl/config/profiles"
	apiact "github.com/carestack/cdr/pkg/api/types/acts"
	apibundle "github.com/carestack/cdr/pkg/api/types/bundles"
	apient "github.com/carestack/cdr/pkg/api/types/entities"
	apiusers "github.com/carestack/cdr/pkg/api/types/users"
	"github.com/carestack/cdr/pkg/utils/slices"
)

// EntityFilter is the query surface of the entity find endpoint. Zero values
// are left out of the request.
type EntityFilter struct {
	Class            string
	Status           string
	Name             string
	Identifier       string
	IdentifierDomain string
	IncludeObsolete  bool
	ObsoleteOnly     bool
}

// ActFilter is the query surface of the act find endpoint.
type ActFilter struct {
	Class   string
	Mood    string
	Status  string
	Patient string
	From    string
	To      string
}

// Page selects one page of a find. A zero Page means server defaults.
type Page struct {
	Offset     int
	Count      int
	QueryId    string
	FuzzyTotal bool
}

type CdrClient interface {
	// Login trades credentials for a bearer token. It is the only call that
	// works without a token.
	Login(ctx context.Context, userName string, password string) (apiusers.AuthResponse, error)

	FindEntities(ctx context.Context, filter EntityFilter, page Page) (apient.FindResult, error)
	GetEntity(ctx context.Context, key string, version string) (apient.Detail, error)
	PostEntity(ctx context.Context, detail apient.Detail) (apient.Detail, error)
	PutEntity(ctx context.Context, key string, detail apient.Detail) (apient.Detail, error)
	// DeleteEntity obsoletes by default; purge erases history down to the
	// tombstone.
	DeleteEntity(ctx context.Context, key string, purge bool) error

	FindActs(ctx context.Context, filter ActFilter, page Page) (apiact.FindResult, error)
	GetAct(ctx context.Context, key string, version string) (apiact.Detail, error)

	SubmitBundle(ctx context.Context, b apibundle.Bundle) (apibundle.Bundle, error)

	// Copy replicates records into the replica store attached to the
	// server. kind is "entity" or "act".
	Copy(ctx context.Context, kind string, keys []string) (int, error)

	ListUsers(ctx context.Context) ([]apiusers.Detail, error)
	CreateUser(ctx context.Context, req apiusers.CreateRequest) (apiusers.Detail, error)
	LockUser(ctx context.Context, userName string, req apiusers.LockRequest) error
	UnlockUser(ctx context.Context, userName string) error
}

type client struct {
	httpclient *http.Client
	api        string
	token      string
}

// NewClient creates a cdr client for a profile.
//
// If the given profile is invalid, ErrProfileInvalid is returned.
func NewClient(prof *kprof.CdrProfile) (CdrClient, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}
	httpclient := new(http.Client)

	if prof.Cert.CA != "" {
		hc, err := trustCa(httpclient, []string{prof.Cert.CA})
		if err != nil {
			return nil, err
		}
		httpclient = hc
	}

	c := &client{
		httpclient: httpclient,
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
		token:      prof.Token,
	}

	return c, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	path = slices.Map(path, func(p string) string {
		return strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/")
	})

	return strings.Join(append([]string{c.api}, path...), "/")
}

// do sends req with the profile's bearer token attached.
func (c *client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpclient.Do(req)
}

func (c *client) sendJson(
	ctx context.Context, method string, url string, payload io.Reader,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req)
}

func pageQuery(q url.Values, page Page) {
	if page.Offset != 0 {
		q.Add("offset", fmt.Sprintf("%d", page.Offset))
	}
	if page.Count != 0 {
		q.Add("count", fmt.Sprintf("%d", page.Count))
	}
	if page.QueryId != "" {
		q.Add("queryId", page.QueryId)
	}
	if page.FuzzyTotal {
		q.Add("fuzzyTotal", "true")
	}
}

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}

		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return hc, nil
}
