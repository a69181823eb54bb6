package vbacache

import (
	"bytes"
	"errors"
	"testing"
)

type countingSynth struct {
	calls int
	blob  []byte
	err   error
}

func (s *countingSynth) Synthesize(sources []Source) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.blob, nil
}

func sampleSources() []Source {
	return []Source{
		{Name: "modWbsCommands", Data: []byte("Sub MoveTaskRowUp()\nEnd Sub\n")},
		{Name: "modProtection", Data: []byte("Sub ReapplyProtection()\nEnd Sub\n")},
	}
}

func TestKeyIgnoresLoadOrder(t *testing.T) {
	src := sampleSources()
	reversed := []Source{src[1], src[0]}
	if Key(src) != Key(reversed) {
		t.Error("key depends on source load order")
	}
}

func TestKeySensitiveToContent(t *testing.T) {
	base := Key(sampleSources())

	renamed := sampleSources()
	renamed[0].Name = "modWbsCommands2"
	if Key(renamed) == base {
		t.Error("key unchanged by source rename")
	}

	edited := sampleSources()
	edited[1].Data = append(edited[1].Data, '\'')
	if Key(edited) == base {
		t.Error("key unchanged by source edit")
	}

	// Length framing: moving a byte across the name/data boundary must
	// change the key.
	a := []Source{{Name: "ab", Data: []byte("c")}}
	b := []Source{{Name: "a", Data: []byte("bc")}}
	if Key(a) == Key(b) {
		t.Error("key collides across name/data boundary")
	}
}

func TestResolveCachesBlob(t *testing.T) {
	synth := &countingSynth{blob: []byte{0xD0, 0xCF, 0x11, 0xE0, 1, 2, 3}}
	c := New(t.TempDir(), synth)

	first, err := c.Resolve(sampleSources(), false)
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	second, err := c.Resolve(sampleSources(), false)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("cache hit returned a different blob")
	}
	if synth.calls != 1 {
		t.Errorf("synthesizer invoked %d times, want 1", synth.calls)
	}
}

func TestResolveForceRegenerates(t *testing.T) {
	synth := &countingSynth{blob: []byte("v1")}
	c := New(t.TempDir(), synth)

	if _, err := c.Resolve(sampleSources(), false); err != nil {
		t.Fatal(err)
	}
	synth.blob = []byte("v2")
	blob, err := c.Resolve(sampleSources(), true)
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != "v2" {
		t.Errorf("force did not regenerate, got %q", blob)
	}
	if synth.calls != 2 {
		t.Errorf("synthesizer invoked %d times, want 2", synth.calls)
	}
}

func TestResolveWithoutSynthesizer(t *testing.T) {
	dir := t.TempDir()

	// Miss with no synthesizer: CacheError carrying the key.
	c := New(dir, nil)
	_, err := c.Resolve(sampleSources(), false)
	var cerr *CacheError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CacheError, got %v", err)
	}
	if cerr.Key != Key(sampleSources()) {
		t.Errorf("error key %q does not match request key", cerr.Key)
	}
	if !errors.Is(err, ErrSynthesizerUnavailable) {
		t.Errorf("expected ErrSynthesizerUnavailable, got %v", err)
	}

	// Seed the store, then a synthesizer-less cache still resolves.
	seeded := New(dir, &countingSynth{blob: []byte("blob")})
	if _, err := seeded.Resolve(sampleSources(), false); err != nil {
		t.Fatal(err)
	}
	blob, err := c.Resolve(sampleSources(), false)
	if err != nil {
		t.Fatalf("cached entry not served without synthesizer: %v", err)
	}
	if string(blob) != "blob" {
		t.Errorf("got %q", blob)
	}
}

func TestSynthesizerFailureSurfaces(t *testing.T) {
	boom := errors.New("compiler exploded")
	c := New(t.TempDir(), &countingSynth{err: boom})
	_, err := c.Resolve(sampleSources(), false)
	if !errors.Is(err, boom) {
		t.Errorf("synthesizer error not surfaced: %v", err)
	}
}
