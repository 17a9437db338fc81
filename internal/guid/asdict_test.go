package guid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntity struct {
	Base
	Title string `json:"title"`
}

func TestAsDict_IncludesChecksumByDefault(t *testing.T) {
	e := fakeEntity{
		Base:  NewBase(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Title: "hello",
	}
	out, err := AsDict(e, nil, false)
	require.NoError(t, err)

	assert.Equal(t, "hello", out["title"])
	assert.Equal(t, e.GUID, out["guid"])
	assert.Contains(t, out, "checksum")
	assert.Len(t, out["checksum"], 8)
}

func TestAsDict_ExcludesChecksumWhenRequested(t *testing.T) {
	e := fakeEntity{Base: NewBase(time.Now()), Title: "x"}
	out, err := AsDict(e, []string{"checksum"}, false)
	require.NoError(t, err)
	assert.NotContains(t, out, "checksum")
}

func TestAsDict_ExcludesNamedFields(t *testing.T) {
	e := fakeEntity{Base: NewBase(time.Now()), Title: "x"}
	out, err := AsDict(e, []string{"comment", "checksum"}, false)
	require.NoError(t, err)
	assert.NotContains(t, out, "comment")
}

func TestAsDict_CamelCaseRemap(t *testing.T) {
	e := fakeEntity{Base: NewBase(time.Now()), Title: "x"}
	out, err := AsDict(e, []string{"checksum"}, true)
	require.NoError(t, err)
	assert.Contains(t, out, "createdAt")
	assert.NotContains(t, out, "created_at")
}

func TestAsDict_TimeFormatHasExplicitOffset(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	e := fakeEntity{Base: NewBase(now), Title: "x"}
	out, err := AsDict(e, []string{"checksum"}, false)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04T05:06:07+00:00", out["created_at"])
}

func TestAsDict_ChecksumStableRegardlessOfFieldOrder(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e1 := fakeEntity{Base: Base{GUID: "g1", CreatedAt: now, UpdatedAt: now}, Title: "x"}
	e2 := fakeEntity{Base: Base{GUID: "g1", CreatedAt: now, UpdatedAt: now}, Title: "x"}

	out1, err := AsDict(e1, nil, false)
	require.NoError(t, err)
	out2, err := AsDict(e2, nil, false)
	require.NoError(t, err)
	assert.Equal(t, out1["checksum"], out2["checksum"])
}
