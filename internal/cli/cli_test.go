package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/server"
	"github.com/idilsaglam/violet/internal/server/boltdb"
	"github.com/idilsaglam/violet/internal/store/jsonstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	url string
	db  *boltdb.DB
}

type result struct {
	code   int
	out    string
	errOut string
}

// isolate points config and credentials at an empty home.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIOLET_TOKEN", "")
	t.Setenv("VIOLET_CONFIG", "")
	t.Setenv("VIOLET_API_URL", "")
}

func newEnv(t *testing.T) *env {
	t.Helper()
	isolate(t)
	db, err := boltdb.Open(filepath.Join(t.TempDir(), "violet.db"), 5)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ts := httptest.NewServer(server.New(db, server.Options{}).Handler())
	t.Cleanup(ts.Close)
	return &env{url: ts.URL, db: db}
}

func (e *env) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	return runAt(t, e.url, stdin, args...)
}

func runAt(t *testing.T, url, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--api-url", url, "--theme", "mono"}, args...)
	code := Run(t.Context(), full, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, out: out.String(), errOut: errOut.String()}
}

func TestAgents_AddListEdit(t *testing.T) {
	e := newEnv(t)

	r := e.run(t, "", "agents", "add", "--name", "Violet", "--age", "14")
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.Contains(t, r.out, "Agent created")

	r = e.run(t, "", "agents", "ls")
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.Contains(t, r.out, "Violet")
	assert.Contains(t, r.out, "Total 1")

	r = e.run(t, "", "agents", "edit", "1", "--active=false")
	require.Equal(t, ExitOK, r.code, r.errOut)
	agents, err := e.db.ListAgents()
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "Violet", agents[0].Name, "unchanged fields are kept")
	assert.Equal(t, 14, agents[0].Age)
	assert.False(t, agents[0].Active)
}

func TestAgentsAdd_ValidationIsUsageError(t *testing.T) {
	e := newEnv(t)
	r := e.run(t, "", "agents", "add", "--name", "Iris")

	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.errOut, "Incomplete data")
	assert.Equal(t, 1, strings.Count(r.errOut, "Incomplete data"), "reported once")

	agents, err := e.db.ListAgents()
	require.NoError(t, err)
	assert.Empty(t, agents)
}

func TestUsageErrors(t *testing.T) {
	e := newEnv(t)
	for _, args := range [][]string{
		{"bogus"},
		{"agents", "rm"},
		{"agents", "rm", "abc"},
		{"agents", "ls", "--nope"},
		{"letters", "ls", "--status", "lost"},
		{"report", "agent", "0"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			r := e.run(t, "", args...)
			assert.Equal(t, ExitUsage, r.code, r.errOut)
		})
	}
}

func TestBadConfigIsUsageError(t *testing.T) {
	e := newEnv(t)
	r := e.run(t, "", "--log-level", "loud", "agents", "ls")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.errOut, "invalid log.level")
}

func TestRemove_Prompt(t *testing.T) {
	e := newEnv(t)
	_, err := e.db.CreateAgent(model.Agent{Name: "Violet", Age: 14, Active: true})
	require.NoError(t, err)

	r := e.run(t, "n\n", "agents", "rm", "1")
	require.Equal(t, ExitOK, r.code)
	assert.Contains(t, r.out, "Delete agent #1? [y/N]")
	assert.Contains(t, r.out, "Cancelled")
	agents, _ := e.db.ListAgents()
	assert.Len(t, agents, 1)

	r = e.run(t, "", "agents", "rm", "1")
	assert.Contains(t, r.out, "Cancelled", "EOF declines")

	r = e.run(t, "y\n", "agents", "rm", "1")
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.Contains(t, r.out, "Agent #1 deleted")
	agents, _ = e.db.ListAgents()
	assert.Empty(t, agents)
}

func TestRemove_YesSkipsPrompt(t *testing.T) {
	e := newEnv(t)
	_, err := e.db.CreateClient(model.Client{Name: "Ann", City: "Leiden", Reason: "mother", Contact: "ann@x"})
	require.NoError(t, err)

	r := e.run(t, "", "clients", "rm", "1", "--yes")
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.NotContains(t, r.out, "[y/N]")
	clients, _ := e.db.ListClients(boltdb.ClientFilter{})
	assert.Empty(t, clients)
}

func TestClients_FilterAndEdit(t *testing.T) {
	e := newEnv(t)
	for _, c := range []model.Client{
		{Name: "Ann", City: "Leiden", Reason: "mother", Contact: "ann@x"},
		{Name: "Bo", City: "Gent", Reason: "friend", Contact: "bo@x"},
	} {
		_, err := e.db.CreateClient(c)
		require.NoError(t, err)
	}

	r := e.run(t, "", "clients", "ls", "--city", "gen")
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.Contains(t, r.out, "Bo")
	assert.NotContains(t, r.out, "Ann")

	r = e.run(t, "", "clients", "edit", "1", "--city", "Delft")
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.Contains(t, r.out, "Client updated")
	clients, _ := e.db.ListClients(boltdb.ClientFilter{Name: "ann"})
	require.Len(t, clients, 1)
	assert.Equal(t, "Delft", clients[0].City)
	assert.Equal(t, "mother", clients[0].Reason)

	r = e.run(t, "", "clients", "edit", "9", "--city", "Delft")
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.errOut, "client #9 not found")
}

func TestLetters_Lifecycle(t *testing.T) {
	e := newEnv(t)
	_, err := e.db.CreateAgent(model.Agent{Name: "Violet", Age: 14, Active: true})
	require.NoError(t, err)
	_, err = e.db.CreateClient(model.Client{Name: "Ann", City: "Leiden", Reason: "mother", Contact: "ann@x"})
	require.NoError(t, err)

	r := e.run(t, "", "letters", "add", "--client", "7", "--content", "hi")
	assert.Equal(t, ExitUsage, r.code, "unknown client is caught locally")

	r = e.run(t, "", "letters", "add", "--client", "1", "--content", "Dear mother")
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.Contains(t, r.out, "Letter created")

	r = e.run(t, "", "letters", "advance", "1")
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.Contains(t, r.out, "Letter #1 is now reviewed")
	r = e.run(t, "", "letters", "ls")
	assert.Contains(t, r.out, "0/1 sent")
	r = e.run(t, "", "letters", "advance", "1")
	assert.Contains(t, r.out, "Letter #1 is now sent")

	r = e.run(t, "", "letters", "advance", "1")
	assert.Equal(t, ExitOK, r.code, "advancing a sent letter is a no-op, not a failure")
	assert.Contains(t, r.out, "This letter cannot advance further")

	r = e.run(t, "", "--yes", "letters", "rm", "1")
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.errOut, "Only draft letters can be deleted")

	r = e.run(t, "", "letters", "ls", "--status", "sent")
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.Contains(t, r.out, "Dear mother")
	assert.Contains(t, r.out, "1/1 sent")

	r = e.run(t, "", "letters", "ls", "--status", "draft")
	assert.Contains(t, r.out, "no letters")

	r = e.run(t, "", "report", "agent", "1")
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.Contains(t, r.out, "letters 1")
	assert.Contains(t, r.out, "clients 1")
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	_, err := e.db.CreateAgent(model.Agent{Name: "Violet", Age: 14, Active: true})
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "out.json")
	r := e.run(t, "", "export", p)
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.Contains(t, r.out, "exported 1 agents, 0 clients, 0 letters")

	snap, err := jsonstore.Load(p)
	require.NoError(t, err)
	assert.Equal(t, e.url, snap.Source)
	require.Len(t, snap.Agents, 1)
	assert.Equal(t, "Violet", snap.Agents[0].Name)
	assert.Empty(t, snap.Letters)

	p = filepath.Join(t.TempDir(), "slash.json")
	r = runAt(t, e.url+"/", "", "export", p)
	require.Equal(t, ExitOK, r.code, r.errOut)
	snap, err = jsonstore.Load(p)
	require.NoError(t, err)
	assert.Equal(t, e.url, snap.Source, "source is the URL the client actually calls")
}

func TestUnreachableBackend(t *testing.T) {
	isolate(t)
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	r := runAt(t, url, "", "agents", "ls")
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.errOut, "Could not load agents: Cannot reach the server")
}

func TestAuth_LoginStatusLogout(t *testing.T) {
	e := newEnv(t)

	r := e.run(t, "", "auth", "status")
	require.Equal(t, ExitOK, r.code)
	assert.Contains(t, r.out, "not logged in")

	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"ann","exp":4102444800}`))
	jwt := "eyJhbGciOiJub25lIn0." + payload + ".sig"
	r = e.run(t, jwt+"\n", "auth", "login")
	require.Equal(t, ExitOK, r.code, r.errOut)
	assert.Contains(t, r.out, "Paste your token")

	r = e.run(t, "", "auth", "status")
	assert.Contains(t, r.out, "source: file")
	assert.Contains(t, r.out, "expires: 2100-01-01T00:00:00Z")
	assert.Contains(t, r.out, `"sub":"ann"`)

	r = e.run(t, "", "auth", "logout")
	require.Equal(t, ExitOK, r.code)
	r = e.run(t, "", "auth", "status")
	assert.Contains(t, r.out, "not logged in")

	t.Setenv("VIOLET_TOKEN", "opaque")
	r = e.run(t, "", "auth", "status")
	assert.Contains(t, r.out, "source: env")
	assert.Contains(t, r.out, "opaque token")
	r = e.run(t, "", "auth", "logout")
	assert.Contains(t, r.out, "nothing to delete")
}

func TestTokenIsSentToServer(t *testing.T) {
	isolate(t)
	db, err := boltdb.Open(filepath.Join(t.TempDir(), "violet.db"), 5)
	require.NoError(t, err)
	defer db.Close()
	ts := httptest.NewServer(server.New(db, server.Options{Token: "s3cret"}).Handler())
	defer ts.Close()

	t.Setenv("VIOLET_TOKEN", "wrong")
	r := runAt(t, ts.URL, "", "agents", "ls")
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.errOut, "(401)")

	t.Setenv("VIOLET_TOKEN", "Bearer s3cret")
	r = runAt(t, ts.URL, "", "agents", "ls")
	assert.Equal(t, ExitOK, r.code, r.errOut)
}

func TestServe_SeedsAndStops(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.jsonc")
	require.NoError(t, os.WriteFile(seed, []byte(`{
		// two agents, one client, one letter
		"dolls": [
			{"id": 1, "nombre": "Violet", "edad": 14, "activo": true, "cartas": 1},
			{"nombre": "Iris", "edad": 16, "activo": false},
		],
		"clientes": [
			{"id": 3, "nombre": "Ann", "ciudad": "Leiden", "motivo": "mother", "contacto": "ann@x"}
		],
		"cartas": [
			{"cliente_id": 3, "doll_id": 1, "fecha": "2026-01-02", "contenido": "Dear", "estado": "revisado"}
		]
	}`), 0o644))
	dbPath := filepath.Join(dir, "violet.db")

	// A cancelled context makes serve shut down as soon as it listens.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errOut bytes.Buffer
	code := Run(ctx, []string{"serve", "--addr", "127.0.0.1:0", "--db", dbPath, "--seed", seed}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, ExitOK, code, errOut.String())
	assert.Contains(t, errOut.String(), "seed imported")

	code = Run(ctx, []string{"serve", "--addr", "127.0.0.1:0", "--db", dbPath, "--seed", seed}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, ExitError, code, "seeding twice is refused")
	assert.Contains(t, errOut.String(), boltdb.ErrNotEmpty.Error())

	db, err := boltdb.Open(dbPath, 5)
	require.NoError(t, err)
	defer db.Close()
	agents, err := db.ListAgents()
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, uint64(2), agents[1].ID)
	letters, err := db.ListLetters(boltdb.LetterFilter{})
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, model.StatusReviewed, letters[0].Status)
}
