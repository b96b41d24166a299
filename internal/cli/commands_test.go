package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twboot/internal/store"
	"github.com/roach88/twboot/internal/testutil"
)

const greetModule = "title: $:/modules/greet\ntype: application/x-hcl\nmodule-type: library\n\n" +
	`exports = { greeting = upper("hi") }`

// writeWiki creates a wiki folder and a plugin library under a temp dir.
func writeWiki(t *testing.T) (wikiDir, libDir string) {
	t.Helper()
	root := t.TempDir()
	wikiDir = filepath.Join(root, "wiki")
	libDir = filepath.Join(root, "library")

	testutil.WriteFiles(t, wikiDir, map[string]string{
		"tiddlywiki.info":           `{"description": "cli wiki", "plugins": ["me/lib"]}`,
		"tiddlers/Hello.tid":        "title: Hello\ntags: greeting\n\nHello from the wiki",
		"tiddlers/greet.tid":        greetModule,
		"plugins/local/plugin.info": `{"title": "$:/plugins/local"}`,
		"plugins/local/note.tid":    "title: $:/plugins/local/note\n\nlocal note",
	})
	testutil.WriteFiles(t, libDir, map[string]string{
		"plugins/me/lib/plugin.info": `{"title": "$:/plugins/me/lib", "plugin-priority": 5}`,
		"plugins/me/lib/readme.tid":  "title: $:/plugins/me/lib/readme\n\nlibrary readme",
	})
	return wikiDir, libDir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func TestBootCommand_Text(t *testing.T) {
	wikiDir, libDir := writeWiki(t)

	out, err := runCLI(t, "boot", wikiDir, "--library", libDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Booted "+wikiDir)
	assert.Contains(t, out, "Tiddlers: 4")
	assert.Contains(t, out, "Shadows:  2")
	assert.Contains(t, out, "$:/plugins/me/lib")
	assert.NotContains(t, out, "failure")
}

func TestBootCommand_JSON(t *testing.T) {
	wikiDir, libDir := writeWiki(t)

	out, err := runCLI(t, "--format", "json", "boot", wikiDir, "--library", libDir)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 4.0, data["tiddlers"])
	assert.Equal(t, 2.0, data["shadows"])
	assert.ElementsMatch(t, []any{"$:/plugins/local", "$:/plugins/me/lib"}, data["plugins"])
	assert.Equal(t, []any{"$:/modules/greet"}, data["modules"])
}

func TestBootCommand_WithoutLibrarySkipsPlugin(t *testing.T) {
	wikiDir, _ := writeWiki(t)

	out, err := runCLI(t, "--format", "json", "boot", wikiDir)
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, 3.0, data["tiddlers"])
	assert.Equal(t, []any{"$:/plugins/local"}, data["plugins"])
}

func TestBootCommand_MissingFolder(t *testing.T) {
	out, err := runCLI(t, "boot", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "wiki folder not found")
}

func TestBootCommand_NoWikiInfo(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"tiddlers/A.tid": "title: A\n\na"})

	out, err := runCLI(t, "--format", "json", "boot", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeBootFailed, resp.Error.Code)
}

func TestBootCommand_InvalidWikiInfo(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"tiddlywiki.info": `{"plugins": "me/lib"}`})

	_, err := runCLI(t, "boot", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBootCommand_StartupFailure(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"tiddlywiki.info":     `{}`,
		"tiddlers/broken.tid": "title: $:/startup/broken\ntype: application/x-hcl\nmodule-type: startup\n\nexports = {",
	})

	out, err := runCLI(t, "boot", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ 1 failure(s)")
	assert.Contains(t, out, "$:/startup/broken")
}

func TestGetCommand_RealTiddlerAsTid(t *testing.T) {
	wikiDir, libDir := writeWiki(t)

	out, err := runCLI(t, "get", wikiDir, "Hello", "--library", libDir)
	require.NoError(t, err)
	assert.Equal(t, "title: Hello\ntags: greeting\n\nHello from the wiki", out)
}

func TestGetCommand_ShadowTiddlerJSON(t *testing.T) {
	wikiDir, libDir := writeWiki(t)

	out, err := runCLI(t, "--format", "json", "get", wikiDir, "$:/plugins/me/lib/readme", "--library", libDir)
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, "$:/plugins/me/lib/readme", data["title"])
	assert.Equal(t, "shadow", data["layer"])
	assert.Equal(t, "$:/plugins/me/lib", data["source"])
	fields := data["fields"].(map[string]any)
	assert.Equal(t, "library readme", fields["text"])
}

func TestGetCommand_NotFound(t *testing.T) {
	wikiDir, libDir := writeWiki(t)

	out, err := runCLI(t, "get", wikiDir, "Missing", "--library", libDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E202]: tiddler not found: Missing")
}

func TestListCommand(t *testing.T) {
	wikiDir, libDir := writeWiki(t)

	out, err := runCLI(t, "list", wikiDir, "--library", libDir)
	require.NoError(t, err)
	assert.Equal(t, "$:/modules/greet\n$:/plugins/local\n$:/plugins/me/lib\nHello\n", out)

	out, err = runCLI(t, "--format", "json", "list", wikiDir, "--library", libDir, "--shadows")
	require.NoError(t, err)
	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, "shadow", data["layer"])
	assert.Equal(t, []any{"$:/plugins/local/note", "$:/plugins/me/lib/readme"}, data["titles"])
}

func TestListCommand_SafeModeHasNoShadows(t *testing.T) {
	wikiDir, libDir := writeWiki(t)

	out, err := runCLI(t, "list", wikiDir, "--library", libDir, "--shadows", "--safe-mode")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExecCommand(t *testing.T) {
	wikiDir, libDir := writeWiki(t)

	out, err := runCLI(t, "exec", wikiDir, "$:/modules/greet", "--library", libDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ $:/modules/greet")
	assert.Contains(t, out, `greeting = "HI"`)

	out, err = runCLI(t, "--format", "json", "exec", wikiDir, "$:/modules/greet")
	require.NoError(t, err)
	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, map[string]any{"greeting": "HI"}, data["exports"])
}

func TestExecCommand_UnknownModule(t *testing.T) {
	wikiDir, libDir := writeWiki(t)

	out, err := runCLI(t, "exec", wikiDir, "$:/modules/none", "--library", libDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E203]")
}

func TestSnapshotAndRestore(t *testing.T) {
	wikiDir, libDir := writeWiki(t)
	dbPath := filepath.Join(t.TempDir(), "wiki.db")

	out, err := runCLI(t, "--format", "json", "snapshot", wikiDir, "--library", libDir, "--db", dbPath, "--label", "first")
	require.NoError(t, err)
	info := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, 4.0, info["tiddlers"])
	assert.Equal(t, 1.0, info["seq"])
	assert.Equal(t, "first", info["label"])

	out, err = runCLI(t, "restore", "--db", dbPath, "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "4 tiddlers")
	assert.Contains(t, out, info["id"].(string))

	out, err = runCLI(t, "--format", "json", "restore", "--db", dbPath)
	require.NoError(t, err)
	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, 4.0, data["tiddlers"])
	assert.Equal(t, 2.0, data["shadows"])

	out, err = runCLI(t, "restore", "--db", dbPath, "--id", info["id"].(string))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Booted snapshot:"+info["id"].(string))

	out, err = runCLI(t, "restore", "--db", dbPath, "--prefix", "$:/plugins/")
	require.NoError(t, err)
	assert.Equal(t, "$:/plugins/local\n$:/plugins/me/lib\n", out)

	out, err = runCLI(t, "--format", "json", "restore", "--db", dbPath, "--where", "tags=greeting")
	require.NoError(t, err)
	data = decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, []any{"Hello"}, data["titles"])

	_, err = runCLI(t, "restore", "--db", dbPath, "--where", "tags")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRestoreCommand_MissingDatabase(t *testing.T) {
	_, err := runCLI(t, "restore", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRestoreCommand_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runCLI(t, "restore", "--db", dbPath, "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshots found.")

	_, err = runCLI(t, "restore", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrNoSnapshots)
}

func TestRestoreCommand_UnknownID(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = runCLI(t, "restore", "--db", dbPath, "--id", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, store.IsNotFound(err))
}

func TestStoreCommands_RequireDB(t *testing.T) {
	wikiDir, _ := writeWiki(t)

	_, err := runCLI(t, "snapshot", wikiDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}
