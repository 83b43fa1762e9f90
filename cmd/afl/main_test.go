package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetraxile/afl/byml"
	"github.com/tetraxile/afl/sarc"
	"github.com/tetraxile/afl/yaz0"
)

// run executes the tool with a fresh app and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Setenv("AFL_BLOB_CONTAINER", "")
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(append([]string{"afl", "--log-level", "INFO"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, p string, data []byte) {
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
}

func TestYaz0Commands(t *testing.T) {
	dir := t.TempDir()
	plain := bytes.Repeat([]byte("super mario odyssey "), 50)
	writeFile(t, filepath.Join(dir, "plain.bin"), plain)

	_, err := run(t, "yaz0", "compress", "--alignment", "0", filepath.Join(dir, "plain.bin"), filepath.Join(dir, "out", "packed.szs"))
	require.NoError(t, err)
	packed, err := os.ReadFile(filepath.Join(dir, "out", "packed.szs"))
	require.NoError(t, err)
	assert.True(t, yaz0.IsCompressed(packed))
	assert.Less(t, len(packed), len(plain))

	_, err = run(t, "yaz0", "decompress", filepath.Join(dir, "out", "packed.szs"), filepath.Join(dir, "round.bin"))
	require.NoError(t, err)
	round, err := os.ReadFile(filepath.Join(dir, "round.bin"))
	require.NoError(t, err)
	assert.Equal(t, plain, round)

	_, err = run(t, "yaz0", "decompress", filepath.Join(dir, "plain.bin"), filepath.Join(dir, "x.bin"))
	require.ErrorIs(t, err, yaz0.ErrBadMagic)
}

func TestSZSCommands(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"Layout/Main.bflyt": []byte("layout"),
		"Timg/Icon.bflim":   bytes.Repeat([]byte{1, 2, 3}, 40),
	}
	for name, data := range files {
		writeFile(t, filepath.Join(dir, "src", filepath.FromSlash(name)), data)
	}

	archive := filepath.Join(dir, "Menu.szs")
	_, err := run(t, "szs", "create", "--byte-order", "big", filepath.Join(dir, "src"), archive)
	require.NoError(t, err)

	listing, err := run(t, "sarc", "list", archive)
	require.NoError(t, err)
	assert.Contains(t, listing, "Layout/Main.bflyt\t6\t")
	assert.Contains(t, listing, "Timg/Icon.bflim\t120\t")

	info, err := run(t, "info", archive)
	require.NoError(t, err)
	assert.Contains(t, info, "compression: yaz0\n")
	assert.Contains(t, info, "format: SARC\n")
	assert.Contains(t, info, "byte order: big")
	assert.Contains(t, info, "files: 2\n")

	_, err = run(t, "szs", "extract", "--jobs", "1", archive, filepath.Join(dir, "dst"))
	require.NoError(t, err)
	for name, data := range files {
		got, err := os.ReadFile(filepath.Join(dir, "dst", filepath.FromSlash(name)))
		require.NoError(t, err)
		assert.Equal(t, data, got, name)
	}

	plain := filepath.Join(dir, "Menu.sarc")
	_, err = run(t, "sarc", "create", filepath.Join(dir, "src"), plain)
	require.NoError(t, err)
	raw, err := os.ReadFile(plain)
	require.NoError(t, err)
	a, err := sarc.Open(raw)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Layout/Main.bflyt", "Timg/Icon.bflim"}, a.Names())

	_, err = run(t, "szs", "extract", plain, filepath.Join(dir, "dst2"))
	require.ErrorIs(t, err, errNotSZS)
}

func TestBYMLCommands(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "in.yaml"), []byte(`
Name: Kingdom
Scenario: 3
Scale: 1.5
Id: !ul 12345678901234
Objects:
  - {UnitConfigName: Coin, Visible: true}
  - {UnitConfigName: Moon, Visible: false}
`))

	doc := filepath.Join(dir, "Stage.byml.szs")
	_, err := run(t, "byml", "fromyaml", "--byte-order", "big", "--compress", "yaz0", filepath.Join(dir, "in.yaml"), doc)
	require.NoError(t, err)

	info, err := run(t, "info", doc)
	require.NoError(t, err)
	assert.Contains(t, info, "format: BYML\n")
	assert.Contains(t, info, "version: 3\n")
	assert.Contains(t, info, "root: hash of 5\n")

	_, err = run(t, "byml", "toyaml", doc, filepath.Join(dir, "out.yaml"))
	require.NoError(t, err)
	text, err := os.ReadFile(filepath.Join(dir, "out.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "Id: !ul 12345678901234")
	assert.True(t, strings.Contains(string(text), "UnitConfigName: Moon"))

	_, err = run(t, "byml", "tocbor", doc, filepath.Join(dir, "out.cbor"))
	require.NoError(t, err)
	cbor, err := os.ReadFile(filepath.Join(dir, "out.cbor"))
	require.NoError(t, err)
	assert.Equal(t, byte(0xa5), cbor[0])

	_, err = run(t, "byml", "fromyaml", "--version", "2", filepath.Join(dir, "in.yaml"), filepath.Join(dir, "v2.byml"))
	require.ErrorIs(t, err, byml.ErrInvalidVersion)
}

func TestUsageErrors(t *testing.T) {
	_, err := run(t, "yaz0", "compress", "only-one")
	require.Error(t, err)

	_, err = run(t, "sarc", "create", "--byte-order", "middle", t.TempDir(), "x")
	require.ErrorContains(t, err, "unknown byte order")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "junk"), []byte("JUNKJUNK"))
	_, err = run(t, "info", filepath.Join(dir, "junk"))
	require.ErrorContains(t, err, "unrecognised format")

	writeFile(t, filepath.Join(dir, "in.yaml"), []byte("[1]\n"))
	_, err = run(t, "byml", "fromyaml", "--version", "65539", filepath.Join(dir, "in.yaml"), filepath.Join(dir, "out.byml"))
	require.ErrorIs(t, err, errFlagRange)
	_, err = os.Stat(filepath.Join(dir, "out.byml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, "yaz0", "compress", "--alignment", "4294967296", filepath.Join(dir, "junk"), filepath.Join(dir, "junk.yaz0"))
	require.ErrorIs(t, err, errFlagRange)
}
