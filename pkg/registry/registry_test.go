package registry

import (
	"sync"
	"testing"
)

const registryTestPrefix = "registry:registry_test"

func TestNewRegistry_Defaults(t *testing.T) {
	reg, err := NewRegistry(DefaultEntries()...)
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", registryTestPrefix, err)
	}
	if reg.Len() != 5 {
		t.Errorf("%s - Len() = %d, want 5", registryTestPrefix, reg.Len())
	}

	e, ok := reg.Resolve("intake_agent")
	if !ok {
		t.Fatalf("%s - intake_agent not found", registryTestPrefix)
	}
	if e.Endpoint != "http://localhost:8002/legal_intake_api" {
		t.Errorf("%s - Endpoint = %q", registryTestPrefix, e.Endpoint)
	}
	if e.Transport != TransportHTTP {
		t.Errorf("%s - Transport = %q, want http", registryTestPrefix, e.Transport)
	}

	billing, _ := reg.Resolve("billing_agent")
	if !billing.IsSimulated() {
		t.Errorf("%s - billing_agent should be simulated by default", registryTestPrefix)
	}
}

func TestResolve_NotFound(t *testing.T) {
	reg, _ := NewRegistry(DefaultEntries()...)
	for _, ref := range []string{"unknown_agent", "", "intake agent", "unknown_agent@1"} {
		if _, ok := reg.Resolve(ref); ok {
			t.Errorf("%s - Resolve(%q) found an entry", registryTestPrefix, ref)
		}
	}
}

func TestResolve_VersionRange(t *testing.T) {
	reg, err := NewRegistry(Entry{AgentID: "case_agent", Transport: TransportSimulated, Version: "1.4.0"})
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", registryTestPrefix, err)
	}
	tests := []struct {
		ref  string
		want bool
	}{
		{"case_agent", true},
		{"case_agent@1", true},
		{"case_agent@^1.2.0", true},
		{"case_agent@2", false},
		{"case_agent@1.4.1", false},
	}
	for _, tt := range tests {
		if _, ok := reg.Resolve(tt.ref); ok != tt.want {
			t.Errorf("%s - Resolve(%q) found=%v, want %v", registryTestPrefix, tt.ref, ok, tt.want)
		}
	}
}

func TestNewRegistry_Normalizes(t *testing.T) {
	reg, err := NewRegistry(
		Entry{AgentID: "a_agent", Endpoint: "http://localhost:9000/api/"},
		Entry{AgentID: "b_agent"},
		Entry{AgentID: "c_agent", Transport: TransportNATS},
	)
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", registryTestPrefix, err)
	}

	a, _ := reg.Resolve("a_agent")
	if a.Transport != TransportHTTP || a.Endpoint != "http://localhost:9000/api" {
		t.Errorf("%s - a_agent = %+v", registryTestPrefix, a)
	}
	b, _ := reg.Resolve("b_agent")
	if b.Transport != TransportSimulated {
		t.Errorf("%s - b_agent transport = %q, want simulated", registryTestPrefix, b.Transport)
	}
	c, _ := reg.Resolve("c_agent")
	if c.Subject != "agent.c_agent.run_tool" {
		t.Errorf("%s - c_agent subject = %q", registryTestPrefix, c.Subject)
	}
}

func TestNewRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty id", []Entry{{AgentID: ""}}},
		{"duplicate", []Entry{{AgentID: "x_agent"}, {AgentID: "x_agent"}}},
		{"unknown transport", []Entry{{AgentID: "x_agent", Transport: "carrier-pigeon"}}},
		{"http without endpoint", []Entry{{AgentID: "x_agent", Transport: TransportHTTP}}},
		{"bad version", []Entry{{AgentID: "x_agent", Version: "latest"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.entries...)
			if err == nil {
				t.Fatalf("%s - expected error", registryTestPrefix)
			}
			regErr, ok := err.(*RegistryError)
			if !ok {
				t.Fatalf("%s - expected *RegistryError, got %T", registryTestPrefix, err)
			}
			if regErr.Code != "INVALID_ARGUMENT" {
				t.Errorf("%s - Code = %q", registryTestPrefix, regErr.Code)
			}
		})
	}
}

func TestWithAndWithout_DoNotMutateReceiver(t *testing.T) {
	base, _ := NewRegistry(DefaultEntries()...)

	added, err := base.With(Entry{AgentID: "tax_agent", Transport: TransportSimulated})
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", registryTestPrefix, err)
	}
	if _, ok := added.Resolve("tax_agent"); !ok {
		t.Errorf("%s - tax_agent missing from new registry", registryTestPrefix)
	}
	if _, ok := base.Resolve("tax_agent"); ok {
		t.Errorf("%s - base registry was mutated by With", registryTestPrefix)
	}

	removed := base.Without("case_agent")
	if _, ok := removed.Resolve("case_agent"); ok {
		t.Errorf("%s - case_agent still present after Without", registryTestPrefix)
	}
	if _, ok := base.Resolve("case_agent"); !ok {
		t.Errorf("%s - base registry was mutated by Without", registryTestPrefix)
	}
}

func TestEntries_Sorted(t *testing.T) {
	reg, _ := NewRegistry(DefaultEntries()...)
	entries := reg.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].AgentID > entries[i].AgentID {
			t.Errorf("%s - entries not sorted at %d: %s > %s", registryTestPrefix, i, entries[i-1].AgentID, entries[i].AgentID)
		}
	}
}

func TestResolve_ConcurrentReads(t *testing.T) {
	reg, _ := NewRegistry(DefaultEntries()...)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, e := range DefaultEntries() {
				if _, ok := reg.Resolve(e.AgentID); !ok {
					t.Errorf("%s - concurrent Resolve(%s) failed", registryTestPrefix, e.AgentID)
				}
			}
		}()
	}
	wg.Wait()
}
