package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"path"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/carestack/cdr/cmd/cdrd/handlers"
	"github.com/carestack/cdr/pkg/configs"
	cpool "github.com/carestack/cdr/pkg/conn/db/postgres/pool"
	"github.com/carestack/cdr/pkg/persistence"
	cpg "github.com/carestack/cdr/pkg/persistence/postgres"
	"github.com/carestack/cdr/pkg/utils/echoutil"
	"github.com/carestack/cdr/pkg/utils/filewatch"
	cstrings "github.com/carestack/cdr/pkg/utils/strings"
)

func main() {

	configPath := flag.String("config-path", "", "server config path")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	// set log
	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	// read configfile
	conf, err := configs.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	{
		// quit to restart when the config file is rewritten
		ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), *configPath)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer cancel()
		context.AfterFunc(ctx, func() {
			log.Println("config file is updated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by config update: %s", err)
			}
		})
	}

	api, err := root("/api")
	if err != nil {
		log.Fatalf("api root /api is invalid url or path: %s", err)
	}

	// get dbaccesor
	ctx := context.Background()
	db, err := getDBAccessor(ctx, conf)
	if err != nil {
		log.Fatalf("can not connect the clinical database: %s", err.Error())
	}
	defer db.Close()

	if conf.Database().AutoMigrate() {
		if err := db.Schema().Upgrade(ctx); err != nil {
			log.Fatalf("can not upgrade the database schema: %s", err)
		}
	}

	var replica cpool.Pool
	if rurl := conf.Database().ReplicaURL(); rurl != "" {
		rpool, err := pgxpool.Connect(ctx, rurl)
		if err != nil {
			log.Fatalf("can not connect the replica database: %s", err)
		}
		defer rpool.Close()
		replica = cpool.Wrap(rpool)
	}

	// handlers
	e.GET(api("health"), handlers.HealthHandler(db.Schema()))
	e.POST(api("auth"), handlers.PostAuthHandler(
		db.Security(), conf.Auth().SignKey(), conf.Auth().TokenLifetime(),
	))

	authed := e.Group("", handlers.BearerAuth(db.Security(), conf.Auth().SignKey()))
	{
		key := "key"
		authed.GET(api("entities"), handlers.FindEntityHandler(db.Entity()))
		authed.POST(api("entities"), handlers.PostEntityHandler(db.Entity()))
		authed.GET(api("entities/:key/"), handlers.GetEntityHandler(db.Entity(), key))
		authed.PUT(api("entities/:key/"), handlers.PutEntityHandler(db.Entity(), key))
		authed.DELETE(api("entities/:key/"), handlers.DeleteEntityHandler(db.Entity(), key))

		authed.GET(api("acts"), handlers.FindActHandler(db.Act()))
		authed.POST(api("acts"), handlers.PostActHandler(db.Act()))
		authed.GET(api("acts/:key/"), handlers.GetActHandler(db.Act(), key))
		authed.PUT(api("acts/:key/"), handlers.PutActHandler(db.Act(), key))
		authed.DELETE(api("acts/:key/"), handlers.DeleteActHandler(db.Act(), key))
	}

	{
		lookup := "lookup"
		authed.GET(api("concepts/:lookup/"), handlers.GetConceptHandler(db.Concept(), lookup))
		authed.POST(api("concepts"), handlers.PostConceptHandler(db.Concept()))
		authed.PUT(api("concepts/:lookup/"), handlers.PutConceptHandler(db.Concept(), lookup))
		authed.DELETE(api("concepts/:lookup/"), handlers.DeleteConceptHandler(db.Concept(), lookup))

		authed.GET(api("identity-domains"), handlers.ListIdentityDomainHandler(db.IdentityDomain()))
		authed.POST(api("identity-domains"), handlers.PostIdentityDomainHandler(db.IdentityDomain()))
	}

	authed.POST(api("bundles"), handlers.SubmitBundleHandler(db.Bundle()))

	{
		authed.POST(api("admin/copy"), handlers.CopyHandler(db.Entity(), db.Act(), replica))
		authed.GET(api("admin/sequences"), handlers.ListSequencesHandler(db.Schema()))
	}

	{
		name := "name"
		authed.GET(api("users"), handlers.ListUsersHandler(db.Security()))
		authed.POST(api("users"), handlers.CreateUserHandler(db.Security()))
		authed.GET(api("users/:name/"), handlers.GetUserHandler(db.Security(), name))
		authed.PUT(api("users/:name/lock"), handlers.PutUserLockHandler(db.Security(), name))
		authed.DELETE(api("users/:name/lock"), handlers.DeleteUserLockHandler(db.Security(), name))
	}

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	port := fmt.Sprintf(":%d", conf.Port())
	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(port, cert, key))
	} else {
		e.Logger.Fatal(e.Start(port))
	}
}

func getDBAccessor(ctx context.Context, conf *configs.ServerConfig) (persistence.Database, error) {
	options := []cpg.Option{
		cpg.WithCacheSize(conf.Cache().Records()),
		cpg.WithQuerySetSize(conf.Cache().QuerySets()),
	}
	if conf.Database().ParallelLoad() {
		options = append(options, cpg.WithParallelLoad())
	}
	return cpg.New(ctx, conf.Database().URL(), options...)
}

// create api URL factory
//
// args:
//   - root: api root
//
// return:
// - func: it receive relative path from root, and returns full-path of URL.
func root(r string) (func(...string) string, error) {
	//    when r is https://example.org:8080/api/root/path
	origin := "" // https://example.org:8080/ . "/" terminated. if r is path only, this is empty.
	base := ""   // /api/root/path
	{
		b, err := url.Parse(r)
		if err != nil {
			return nil, err
		}
		base = b.Path
		if b.Host != "" || b.Scheme != "" {
			_r := *b
			r := &_r
			r.RawPath = ""
			r.Path = ""
			r.RawQuery = ""
			r.Fragment = ""
			origin = r.String()
		}
	}
	origin = cstrings.SuppySuffix(origin, "/")

	return func(s ...string) string {
		parts := make([]string, len(s)+1)
		parts[0] = base
		copy(parts[1:], s)
		path := path.Join(parts...)
		path = cstrings.TrimPrefixAll(path, "/")

		return cstrings.SuppySuffix(origin+path, "/")
	}, nil
}
