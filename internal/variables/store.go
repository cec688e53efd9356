package variables

import (
	"strconv"
	"sync"

	"bundlecore/internal/model"
	"bundlecore/pkg/errors"
)

// Initializer lazily computes a built-in variable's value on first read.
type Initializer func() model.Variant

type entry struct {
	value     model.Variant
	hidden    bool
	literal   bool
	persisted bool
	builtIn   bool
	init      Initializer
	initDone  bool
}

// Store is the process-wide variable table (§4.1). A single mutex guards
// all access, matching the teacher's Storage type.
type Store struct {
	mu   sync.Mutex
	vars map[string]*entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{vars: make(map[string]*entry)}
}

// RegisterBuiltIn declares a built-in variable with a late initializer. The
// initializer runs on first read, not at registration time.
func (s *Store) RegisterBuiltIn(name string, hidden bool, init Initializer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = &entry{builtIn: true, hidden: hidden, init: init}
}

func (s *Store) resolve(name string) *entry {
	e, ok := s.vars[name]
	if !ok {
		return nil
	}
	if e.builtIn && !e.initDone && e.init != nil {
		e.value = e.init()
		e.initDone = true
	}
	return e
}

// GetVariant returns the variable's tagged-union value, or model.None if
// undefined (§4.1: undefined names format to empty / false).
func (s *Store) GetVariant(name string) model.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.resolve(name)
	if e == nil {
		return model.None
	}
	return e.value
}

func (s *Store) GetNumeric(name string) (int64, error) {
	v := s.GetVariant(name)
	switch v.Kind {
	case model.VariantNone:
		return 0, nil
	case model.VariantNumeric:
		return v.Numeric, nil
	case model.VariantString:
		n, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			return 0, errors.Wrap(errors.KindInvalidCondition, err, "variable %s is not numeric", name)
		}
		return n, nil
	default:
		return 0, errors.New(errors.KindInvalidCondition, "variable %s has no numeric coercion", name)
	}
}

func (s *Store) GetString(name string) string {
	return s.GetVariant(name).FormatString()
}

func (s *Store) GetVersion(name string) (model.Version, error) {
	v := s.GetVariant(name)
	switch v.Kind {
	case model.VariantNone:
		return model.Version{}, nil
	case model.VariantVersion:
		return v.Ver, nil
	case model.VariantString:
		ver, err := ParseVersion(v.Str)
		if err != nil {
			return model.Version{}, errors.Wrap(errors.KindInvalidCondition, err, "variable %s is not a version", name)
		}
		return ver, nil
	default:
		return model.Version{}, errors.New(errors.KindInvalidCondition, "variable %s has no version coercion", name)
	}
}

// IsHidden reports whether the variable is marked hidden (for logging).
func (s *Store) IsHidden(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.vars[name]
	return e != nil && e.hidden
}

// setOpts configures a Set* call.
type setOpts struct {
	literal          bool
	persisted        bool
	allowOverwriteBuiltIn bool
}

// SetOption mutates setOpts.
type SetOption func(*setOpts)

func Literal() SetOption      { return func(o *setOpts) { o.literal = true } }
func Persisted() SetOption    { return func(o *setOpts) { o.persisted = true } }
func AllowBuiltIn() SetOption { return func(o *setOpts) { o.allowOverwriteBuiltIn = true } }

// Set writes a variant value, creating the variable if absent. Built-ins may
// not be overwritten unless AllowBuiltIn() is passed (§4.1).
func (s *Store) Set(name string, v model.Variant, opts ...SetOption) error {
	var o setOpts
	for _, opt := range opts {
		opt(&o)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.vars[name]
	if ok && e.builtIn && !o.allowOverwriteBuiltIn {
		return errors.New(errors.KindInvalidManifest, "cannot overwrite built-in variable %s", name)
	}
	if !ok {
		e = &entry{}
		s.vars[name] = e
	}
	e.value = v
	e.literal = o.literal
	e.persisted = o.persisted
	e.initDone = true
	return nil
}

func (s *Store) SetNumeric(name string, n int64, opts ...SetOption) error {
	return s.Set(name, model.NumericVariant(n), opts...)
}

func (s *Store) SetString(name, v string, opts ...SetOption) error {
	return s.Set(name, model.StringVariant(v), opts...)
}

func (s *Store) SetVersion(name string, v model.Version, opts ...SetOption) error {
	return s.Set(name, model.VersionVariant(v), opts...)
}

// Names returns all variable names currently defined, for serialization.
func (s *Store) Names(persistedOnly bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name, e := range s.vars {
		if persistedOnly && !e.persisted {
			continue
		}
		names = append(names, name)
	}
	return names
}

// IsLiteral reports whether name's value is used as-is when formatting
// (§4.1: "A variable marked literal is looked up without recursive
// formatting of its value").
func (s *Store) IsLiteral(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.vars[name]
	return e != nil && e.literal
}
