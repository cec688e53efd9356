package model

import "sync"

// EngineState is the process-wide singleton owning Bundle, Variables,
// Containers, Payloads, Packages and the Plan. Per the §9 redesign note it is
// an explicit, passed-around handle rather than ambient global state; its
// internal mutex is the only synchronization point, and callers must never
// hold it across a blocking operation (UI callback, elevation-channel round
// trip, sync-point wait) per §5.
type EngineState struct {
	mu sync.Mutex

	Bundle Bundle

	containers []Container
	containerIdx map[string]int

	payloads   []Payload
	payloadIdx map[string]int

	packages   []Package
	packageIdx map[string]int

	providers map[string]*Provider

	Plan *Plan

	CancelRequested bool
}

// NewEngineState returns an initialized, empty EngineState for the given bundle.
func NewEngineState(b Bundle) *EngineState {
	return &EngineState{
		Bundle:       b,
		containerIdx: make(map[string]int),
		payloadIdx:   make(map[string]int),
		packageIdx:   make(map[string]int),
		providers:    make(map[string]*Provider),
	}
}

// AddContainer appends a container and returns its stable index.
func (e *EngineState) AddContainer(c Container) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := len(e.containers)
	e.containers = append(e.containers, c)
	e.containerIdx[c.ID] = idx
	return idx
}

// Container returns a copy of the container at index i.
func (e *EngineState) Container(i int) Container {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.containers[i]
}

// ContainerByID resolves a container's stable index by its manifest id.
func (e *EngineState) ContainerByID(id string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.containerIdx[id]
	return i, ok
}

// AddPayload appends a payload and returns its stable index.
func (e *EngineState) AddPayload(p Payload) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := len(e.payloads)
	e.payloads = append(e.payloads, p)
	e.payloadIdx[p.Key] = idx
	return idx
}

func (e *EngineState) Payload(i int) Payload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.payloads[i]
}

func (e *EngineState) PayloadByKey(key string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.payloadIdx[key]
	return i, ok
}

// SetPayloadState transitions a payload's cache state under the lock (§3
// ownership invariant: "Payload verification state is changed under the
// Engine State critical section").
func (e *EngineState) SetPayloadState(i int, s PayloadState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.payloads[i].State = s
}

func (e *EngineState) AddPackage(p Package) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := len(e.packages)
	e.packages = append(e.packages, p)
	e.packageIdx[p.ID] = idx
	return idx
}

func (e *EngineState) Package(i int) Package {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.packages[i]
}

func (e *EngineState) PackageByID(id string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.packageIdx[id]
	return i, ok
}

func (e *EngineState) Packages() []Package {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Package, len(e.packages))
	copy(out, e.packages)
	return out
}

func (e *EngineState) Payloads() []Payload {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Payload, len(e.payloads))
	copy(out, e.payloads)
	return out
}

func (e *EngineState) Containers() []Container {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Container, len(e.containers))
	copy(out, e.containers)
	return out
}

// MutatePackage applies fn to the package at index i under the lock.
func (e *EngineState) MutatePackage(i int, fn func(*Package)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.packages[i])
}

// Provider returns (creating if absent) the provider record for key.
func (e *EngineState) Provider(key string) *Provider {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.providers[key]
	if !ok {
		p = &Provider{Key: key}
		e.providers[key] = p
	}
	return p
}

func (e *EngineState) Providers() map[string]*Provider {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]*Provider, len(e.providers))
	for k, v := range e.providers {
		cp := *v
		out[k] = &cp
	}
	return out
}

// SetCancelRequested records cancellation; observed by every blocking wait
// per §5.
func (e *EngineState) SetCancelRequested() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CancelRequested = true
}

func (e *EngineState) IsCancelRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.CancelRequested
}
