// Package gorules defines custom lint rules for ruleguard.
//
// golangci-lint runs these rules via go-critic, which includes support
// for ruleguard. See:
//
// - https://go-ruleguard.github.io/by-example/
// - https://pkg.go.dev/github.com/quasilyte/go-ruleguard/dsl
//
// Run only these rules with:
//
//	golangci-lint run --disable-all --enable=gocritic
package gorules

import (
	"github.com/quasilyte/go-ruleguard/dsl"
)

// Use xerrors everywhere! It provides additional stacktrace info!
//
//nolint:unused,deadcode,varnamelen
func xerrors(m dsl.Matcher) {
	m.Import("errors")
	m.Import("fmt")
	m.Import("golang.org/x/xerrors")

	m.Match("fmt.Errorf($*args)").
		Suggest("xerrors.Errorf($args)").
		Report("Use xerrors to provide additional stacktrace information!")

	m.Match("errors.New($msg)").
		Where(m["msg"].Type.Is("string")).
		Suggest("xerrors.New($msg)").
		Report("Use xerrors to provide additional stacktrace information!")
}

// databaseImport enforces not importing any database types into /printsdk.
//
//nolint:unused,deadcode,varnamelen
func databaseImport(m dsl.Matcher) {
	m.Import("github.com/printwatch/printwatch/printd/database")
	m.Match("database.$_").
		Report("Do not import any database types into printsdk").
		Where(m.File().PkgPath.Matches("github.com/printwatch/printwatch/printsdk"))
}

// serverClock requires the API and the ledger to read time from their
// quartz.Clock so tests can pin it.
//
//nolint:unused,deadcode,varnamelen
func serverClock(m dsl.Matcher) {
	m.Import("time")
	m.Match("time.Now()").
		Report("Use the injected quartz.Clock instead of time.Now()").
		Where(
			m.File().PkgPath.Matches(`github.com/printwatch/printwatch/printd($|/cutledger|/ingest)`) &&
				!m.File().Name.Matches(`_test\.go$`),
		)
}

// writeWithRequestContext keeps request-scoped values in response logging.
//
//nolint:unused,deadcode,varnamelen
func writeWithRequestContext(m dsl.Matcher) {
	m.Import("context")
	m.Import("github.com/printwatch/printwatch/printd/httpapi")
	m.Match("httpapi.Write(context.Background(), $*_)").
		Report("Pass the request context to httpapi.Write").
		Where(!m.File().PkgPath.Matches(`github.com/printwatch/printwatch/printd/httpapi$`))
}
