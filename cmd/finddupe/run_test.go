package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/thomas694/finddupe/internal/capability"
)

// stubPlatform implements capability.Platform with a configurable
// SupportsHardlinks answer and records which directories were probed.
type stubPlatform struct {
	supported bool
	err       error
	probed    []string
}

func (p *stubPlatform) Stat(string) (capability.Identity, error) { return capability.Identity{}, nil }
func (p *stubPlatform) CreateHardlink(string, string) error      { return nil }
func (p *stubPlatform) SetReadOnly(string, bool) error           { return nil }
func (p *stubPlatform) Remove(string) error                      { return nil }
func (p *stubPlatform) SetModTime(string, time.Time) error       { return nil }
func (p *stubPlatform) SupportsHardlinks(dir string) (bool, error) {
	p.probed = append(p.probed, dir)
	return p.supported, p.err
}

func TestCheckCapabilityRejectsIncapableVolume(t *testing.T) {
	plat := &stubPlatform{supported: false}
	groups := []patternGroup{{Pattern: "/data/dupes"}}

	if err := checkCapability(plat, groups); err == nil {
		t.Fatal("expected an error for a volume that doesn't support hard links")
	}
}

func TestCheckCapabilityAcceptsCapableVolume(t *testing.T) {
	plat := &stubPlatform{supported: true}
	groups := []patternGroup{{Pattern: "/data/dupes"}}

	if err := checkCapability(plat, groups); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckCapabilityProbesEachDirectoryOnce(t *testing.T) {
	plat := &stubPlatform{supported: true}
	groups := []patternGroup{
		{Pattern: "/data/dupes/a.txt"},
		{Pattern: "/data/dupes/b.txt"},
		{Pattern: "/other/place"},
	}

	if err := checkCapability(plat, groups); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plat.probed) != 2 {
		t.Fatalf("expected 2 distinct directories probed, got %v", plat.probed)
	}
	want := filepath.Dir("/data/dupes/a.txt")
	if plat.probed[0] != want {
		t.Fatalf("probed[0] = %q, want %q", plat.probed[0], want)
	}
}

func TestCheckCapabilityPropagatesProbeError(t *testing.T) {
	plat := &stubPlatform{err: errStubProbe}
	groups := []patternGroup{{Pattern: "/data/dupes"}}

	if err := checkCapability(plat, groups); err == nil {
		t.Fatal("expected the probe error to propagate")
	}
}

var errStubProbe = &probeError{"probe failed"}

type probeError struct{ msg string }

func (e *probeError) Error() string { return e.msg }
