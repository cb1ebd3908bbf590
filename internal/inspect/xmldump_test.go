package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genc-murat/heapscope/internal/heap"
)

func TestParseFreeSectionScopesToFreeRegion(t *testing.T) {
	dump := []byte(`<arena capacity="8192" mode="classic">
<sizes>
  <size bytes="128" count="3"/>
</sizes>
<busy>
<chunk size="99999"/>
</busy>
<free>
<chunk size="100"/>
<chunk size="250"/>
<chunk size="50"/>
</free>
<total busy="99999" free="400"/>
</arena>
`)

	total, largest, err := parseFreeSection(dump)
	assert.NoError(t, err)
	assert.Equal(t, uint64(400), total, "the busy 99999 token must not be counted")
	assert.Equal(t, uint64(250), largest)
}

func TestParseFreeSectionMalformed(t *testing.T) {
	tests := []struct {
		name string
		dump string
		want error
	}{
		{"no free marker", `<arena><busy><chunk size="10"/></busy></arena>`, errNoFreeSection},
		{"unterminated free section", `<arena><free><chunk size="10"/>`, errUnterminated},
		{"empty input", ``, errNoFreeSection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, largest, err := parseFreeSection([]byte(tt.dump))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, uint64(0), total)
			assert.Equal(t, uint64(0), largest)
		})
	}
}

func TestParseFreeSectionSkipsBadTokens(t *testing.T) {
	// One overflowing token and one non-numeric token amid valid ones;
	// the scan keeps going.
	dump := []byte(`<free>
<chunk size="99999999999999999999999999"/>
<chunk size="abc"/>
<chunk size="100"/>
<chunk size="250"/>
</free>`)

	total, largest, err := parseFreeSection(dump)
	assert.NoError(t, err)
	assert.Equal(t, uint64(350), total)
	assert.Equal(t, uint64(250), largest)
}

func TestParseFreeSectionEmptyRegion(t *testing.T) {
	total, largest, err := parseFreeSection([]byte(`<free>
</free>`))
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), total)
	assert.Equal(t, uint64(0), largest)
}

func TestXMLDumpInspectorBufferTooSmall(t *testing.T) {
	a, err := heap.NewArena(1024, heap.ModeClassic)
	assert.NoError(t, err)
	defer a.Destroy()

	errs := make(chan error, 1)
	insp, err := New("xmldump", a, Options{DumpBufferSize: 8, Errors: errs})
	assert.NoError(t, err)

	total, largest := insp.Inspect()
	assert.Equal(t, uint64(0), total)
	assert.Equal(t, uint64(0), largest)
	assert.Len(t, errs, 1)
}

func TestXMLDumpInspectorMatchesArenaState(t *testing.T) {
	a, err := heap.NewArena(2048, heap.ModeClassic)
	assert.NoError(t, err)
	defer a.Destroy()

	h1, _ := a.Alloc(512)
	a.Alloc(512)
	assert.NoError(t, a.Free(h1))

	insp, err := New("xmldump", a, Options{})
	assert.NoError(t, err)

	total, largest := insp.Inspect()
	assert.Equal(t, uint64(2048-512), total)
	assert.Equal(t, uint64(1024), largest)
}
