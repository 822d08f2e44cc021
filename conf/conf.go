// Package conf loads declarative retry policies from YAML files merged with
// the environment, and builds Retryers out of them. Matchers are referenced
// by name; applications register theirs with RegisterMatcher before
// building.
package conf

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/seb7887/retryx"
	"github.com/seb7887/retryx/clock"
	"github.com/seb7887/retryx/delay"
)

// Load reads the config file named filename (without extension) in path,
// merged with the environment, into a T.
func Load[T any](path string, filename string) (*T, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg T
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Policy is the declarative form of a Retryer.
type Policy struct {
	Rules []Rule `mapstructure:"rules"`
}

// Rule pairs a named matcher with a backoff schedule.
type Rule struct {
	Match   string  `mapstructure:"match"`
	Backoff Backoff `mapstructure:"backoff"`
}

// Backoff describes one rule's delay schedule: count delays starting at
// Initial, each Multiplier times the previous one. Randomness spreads every
// delay by the given fraction, and a positive Budget stops granting delays
// once that much time has passed since the rule's first use in a chain.
type Backoff struct {
	Initial    time.Duration `mapstructure:"initial"`
	Multiplier float64       `mapstructure:"multiplier"`
	Count      int           `mapstructure:"count"`
	Randomness float64       `mapstructure:"randomness"`
	Budget     time.Duration `mapstructure:"budget"`
}

var (
	matchersMu sync.RWMutex
	matchers   = map[string]retryx.Matcher{
		"any": retryx.OnAny(),
	}
)

// RegisterMatcher makes m available to Build under the given name.
// Registering a name again replaces the earlier matcher. The name "any" is
// predefined.
//
// It panics if name is empty or m is nil.
func RegisterMatcher(name string, m retryx.Matcher) {
	if name == "" {
		panic("conf: empty matcher name")
	}
	if m == nil {
		panic("conf: nil matcher")
	}
	matchersMu.Lock()
	defer matchersMu.Unlock()
	matchers[name] = m
}

func lookupMatcher(name string) (retryx.Matcher, bool) {
	matchersMu.RLock()
	defer matchersMu.RUnlock()
	m, ok := matchers[name]
	return m, ok
}

type boundRule struct {
	match  retryx.Matcher
	delays delay.Seq
}

// Build turns the policy into a Retryer with the given engine options.
// Validation problems across all rules are reported together.
func (p *Policy) Build(opts ...retryx.Option) (*retryx.Retryer, error) {
	var errs error
	bound := make([]boundRule, 0, len(p.Rules))
	for i, rule := range p.Rules {
		m, ok := lookupMatcher(rule.Match)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: unknown matcher %q", i, rule.Match))
		}
		s, err := rule.Backoff.seq()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: %w", i, err))
		}
		if ok && err == nil {
			bound = append(bound, boundRule{match: m, delays: s})
		}
	}
	if errs != nil {
		return nil, errs
	}

	r := retryx.New(opts...)
	for _, b := range bound {
		r = r.Upon(b.match, b.delays)
	}
	return r, nil
}

func (b Backoff) seq() (delay.Seq, error) {
	multiplier := b.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}

	var errs error
	if b.Initial < 0 {
		errs = multierr.Append(errs, errors.New("initial delay must not be negative"))
	}
	if b.Count < 0 {
		errs = multierr.Append(errs, errors.New("count must not be negative"))
	}
	if math.IsNaN(multiplier) || multiplier < 1 {
		errs = multierr.Append(errs, errors.New("multiplier must be at least 1"))
	}
	if math.IsNaN(b.Randomness) || b.Randomness < 0 || b.Randomness > 1 {
		errs = multierr.Append(errs, errors.New("randomness must be between 0 and 1"))
	}
	if b.Budget < 0 {
		errs = multierr.Append(errs, errors.New("budget must not be negative"))
	}
	if errs != nil {
		return nil, errs
	}

	s := delay.Of(b.Initial).ExponentialBackoff(multiplier, b.Count)
	if b.Randomness > 0 {
		s = delay.Randomize(s, systemRandom{}, b.Randomness)
	}
	if b.Budget > 0 {
		s = delay.TimeLimited(s, b.Budget, clock.System())
	}
	return s, nil
}

// systemRandom draws from the shared math/rand/v2 generator.
type systemRandom struct{}

func (systemRandom) Float64() float64 { return rand.Float64() }
