//go:build ruleguard

// Package gorules holds the ruleguard checks run by golangci-lint's gocritic.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// WaitGroupGo flags hand-rolled Add/Done pairs; sync.WaitGroup.Go does both.
func WaitGroupGo(m dsl.Matcher) {
	m.Match(`go func() { defer $wg.Done(); $*_ }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go(func() { ... })").
		Suggest("$wg.Go(func() { $*_ })")

	m.Match(`$wg.Add(1)`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go, it calls Add(1) itself")
}

// StdLog keeps output on the structured logger.
func StdLog(m dsl.Matcher) {
	m.Import("log")
	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `log.Print($*_)`,
		`log.Fatalf($*_)`, `log.Fatal($*_)`).
		Where(m.File().Imports("log")).
		Report("use internal/logger instead of the standard log package")
}

// MathRandV1 steers randomness to math/rand/v2.
func MathRandV1(m dsl.Matcher) {
	m.Match(`rand.Seed($_)`).
		Where(m.File().Imports("math/rand")).
		Report("math/rand is superseded; use math/rand/v2 with an explicit source")
}

// TimeSince prefers the helper over manual subtraction.
func TimeSince(m dsl.Matcher) {
	m.Match(`time.Now().Sub($t)`).
		Report("use time.Since($t)").
		Suggest("time.Since($t)")
}

// EmptyInterface prefers any.
func EmptyInterface(m dsl.Matcher) {
	m.Match(`interface{}`).
		Report("use any").
		Suggest("any")
}

// MapClear prefers the builtin over a delete loop.
func MapClear(m dsl.Matcher) {
	m.Match(`for $k := range $m { delete($m, $k) }`).
		Where(m["m"].Type.Underlying().Is("map[$_]$_")).
		Report("use clear($m)").
		Suggest("clear($m)")
}
