package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/respostas"
	"github.com/poiesic/respostas/ai/mock"
	"github.com/poiesic/respostas/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	dir        string
	configPath string
	csvPath    string
	embedder   *mock.MockEmbedder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "respostas.toml"),
		csvPath:    filepath.Join(dir, "respostas.csv"),
		embedder:   mock.NewMockEmbedder(),
	}

	cfg := "[storage]\nbackend = \"csv\"\npath = " + quote(env.csvPath) + "\n\n[access]\npassword = \"segredo\"\n"
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o644))

	extraOptions = []respostas.DatabaseOption{respostas.WithEmbedder(env.embedder)}
	t.Cleanup(func() { extraOptions = nil })
	return env
}

func quote(s string) string {
	return "'" + s + "'"
}

// run executes the app logged in as the configured user.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runAs(t, "segredo", "", args...)
}

func (e *testEnv) runAs(t *testing.T, password, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)

	full := []string{"respostas", "--log-level", "error", "--config", e.configPath}
	if password != "" {
		full = append(full, "--password", password)
	}
	err := app.Run(append(full, args...))
	return out.String(), err
}

func (e *testEnv) addSamples(t *testing.T) {
	t.Helper()
	_, err := e.run(t, "add",
		"--process", "02070.000001/2025-11",
		"--type", "requerimento",
		"--authorship", "Dep. Federal João Silva - PT/SP",
		"--received", "Pedido de informação sobre fiscalização ambiental",
		"--reply", "Segue relatório de fiscalização.")
	require.NoError(t, err)
	_, err = e.run(t, "add",
		"--process", "02070.000002/2025-11",
		"--type", "oficio",
		"--received", "Solicitação de dados sobre licenciamento",
		"--reply", "Segue lista de licenças.")
	require.NoError(t, err)
}

func TestAddCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "add",
		"--process", "02070.000001/2025-11",
		"--received", "Pedido de informação",
		"--reply", "Resposta")
	require.NoError(t, err)
	assert.Contains(t, out, "02070.000001/2025-11")
	assert.Contains(t, out, "posição 0")

	data, err := os.ReadFile(env.csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Pedido de informação")
}

func TestAddCommand_Stdin(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.runAs(t, "segredo", "Texto lido da entrada\n", "add",
		"--stdin", "--process", "1", "--reply", "Resposta")
	require.NoError(t, err)

	out, err := env.run(t, "show", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Texto lido da entrada")
}

func TestStdinRequiresPassword(t *testing.T) {
	env := newTestEnv(t)

	for _, args := range [][]string{
		{"add", "--stdin", "--process", "1", "--reply", "Resposta"},
		{"search", "--stdin"},
	} {
		_, err := env.runAs(t, "", "segredo\n", args...)
		assert.ErrorIs(t, err, errStdinPassword, "%v", args)
	}
	assert.Equal(t, 0, env.embedder.CallCount())

	t.Run("password from environment", func(t *testing.T) {
		env.addSamples(t)
		t.Setenv("RESPOSTAS_LOGIN_PASSWORD", "segredo")

		out, err := env.runAs(t, "", "Pedido sobre fiscalização\n", "search", "--stdin", "-k", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Processo SEI: 02070.000001/2025-11")
	})
}

func TestAddCommand_ReportsStoredPosition(t *testing.T) {
	env := newTestEnv(t)
	env.addSamples(t)

	out, err := env.run(t, "add", "--process", "3", "--received", "Terceiro pedido", "--reply", "Resposta")
	require.NoError(t, err)
	assert.Contains(t, out, "posição 2")
}

func TestAddCommand_Invalid(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "add", "--process", "1", "--received", "Pedido")
	assert.ErrorIs(t, err, core.ErrInvalidRecord)

	_, err = env.run(t, "add", "--process", "1", "--received", "Pedido", "--reply", "r", "--type", "memorando")
	assert.ErrorIs(t, err, core.ErrInvalidDocumentType)
	assert.Equal(t, 0, env.embedder.CallCount())
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.runAs(t, "errada", "", "list")
		assert.ErrorIs(t, err, core.ErrUnauthorized)
	})

	t.Run("wrong user", func(t *testing.T) {
		_, err := env.run(t, "--user", "outro", "list")
		assert.ErrorIs(t, err, core.ErrUnauthorized)
	})

	t.Run("password from stdin", func(t *testing.T) {
		out, err := env.runAs(t, "", "segredo\n", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Nenhum registro")
	})
}

func TestSearchCommand(t *testing.T) {
	env := newTestEnv(t)
	env.addSamples(t)
	env.embedder.Reset()

	out, err := env.run(t, "search", "-k", "1", "Pedido sobre fiscalização")
	require.NoError(t, err)

	assert.Contains(t, out, "Resultados mais semelhantes")
	assert.Contains(t, out, "Processo SEI: 02070.000001/2025-11")
	assert.Contains(t, out, "Tipo: Requerimento de Informação")
	assert.Contains(t, out, "Autoria: Dep. Federal João Silva - PT/SP")
	assert.Contains(t, out, "Similaridade: ")
	assert.Contains(t, out, "Termos em comum: ")
	assert.NotContains(t, out, "02070.000002/2025-11")
	assert.Equal(t, 1, env.embedder.CallCount(), "only the query is embedded")
}

func TestSearchCommand_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "search", "fiscalização")
	assert.ErrorIs(t, err, core.ErrEmptyCorpus)

	env.addSamples(t)
	_, err = env.run(t, "search", "   ")
	assert.ErrorIs(t, err, core.ErrInvalidQuery)
}

func TestListAndFilterCommands(t *testing.T) {
	env := newTestEnv(t)
	env.addSamples(t)

	out, err := env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "02070.000001/2025-11")
	assert.Contains(t, out, "02070.000002/2025-11")
	assert.Contains(t, out, "2 registro(s)")
	assert.Less(t, strings.Index(out, "000001"), strings.Index(out, "000002"))

	out, err = env.run(t, "filter", "licenciamento")
	require.NoError(t, err)
	assert.NotContains(t, out, "02070.000001/2025-11")
	assert.Contains(t, out, "02070.000002/2025-11")
	assert.Contains(t, out, "1 registro(s)")

	out, err = env.run(t, "filter", "--full", "FISCALIZAÇÃO")
	require.NoError(t, err)
	assert.Contains(t, out, "Segue relatório de fiscalização.")

	out, err = env.run(t, "filter", "inexistente")
	require.NoError(t, err)
	assert.Contains(t, out, "Nenhum registro encontrado")
}

func TestShowCommand(t *testing.T) {
	env := newTestEnv(t)
	env.addSamples(t)

	out, err := env.run(t, "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Posição: 1")
	assert.Contains(t, out, "Tipo: Ofício")
	assert.NotContains(t, out, "desatualizado")

	_, err = env.run(t, "show", "7")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = env.run(t, "show", "primeiro")
	assert.Error(t, err)
}

func TestEditCommand(t *testing.T) {
	env := newTestEnv(t)
	env.addSamples(t)
	env.embedder.Reset()

	t.Run("reply only keeps the embedding", func(t *testing.T) {
		_, err := env.run(t, "edit", "0", "--reply", "Nova resposta")
		require.NoError(t, err)
		assert.Equal(t, 0, env.embedder.CallCount())

		out, err := env.run(t, "show", "0")
		require.NoError(t, err)
		assert.Contains(t, out, "Nova resposta")
		assert.Contains(t, out, "Pedido de informação sobre fiscalização ambiental")
	})

	t.Run("received text re-embeds", func(t *testing.T) {
		_, err := env.run(t, "edit", "1", "--received", "Solicitação sobre unidades de conservação")
		require.NoError(t, err)
		assert.Equal(t, 1, env.embedder.CallCount())

		out, err := env.run(t, "search", "-k", "1", "unidades de conservação")
		require.NoError(t, err)
		assert.Contains(t, out, "02070.000002/2025-11")
	})

	t.Run("no flags", func(t *testing.T) {
		_, err := env.run(t, "edit", "0")
		assert.ErrorIs(t, err, errNoChanges)
	})

	t.Run("missing position", func(t *testing.T) {
		_, err := env.run(t, "edit", "5", "--reply", "x")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestExportImportCommands(t *testing.T) {
	env := newTestEnv(t)
	env.addSamples(t)

	exported := filepath.Join(env.dir, "export.csv")
	_, err := env.run(t, "export", exported)
	require.NoError(t, err)

	stdout, err := env.run(t, "export")
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Equal(t, string(data), stdout)
	assert.True(t, strings.HasPrefix(stdout, "processo_sei,"))

	// Import into a second store.
	other := newTestEnv(t)
	out, err := other.run(t, "import", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "2 registros importados")
	assert.Equal(t, 0, other.embedder.CallCount(), "embedded rows are not re-embedded")

	out, err = other.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "02070.000001/2025-11")

	_, err = other.run(t, "import", filepath.Join(env.dir, "absent.csv"))
	assert.Error(t, err)
}

func TestImportCommand_EmbedsRowsWithoutEmbedding(t *testing.T) {
	env := newTestEnv(t)

	legacy := filepath.Join(env.dir, "legado.csv")
	require.NoError(t, os.WriteFile(legacy, []byte(
		"processo_sei,tipo_documento,autoria,texto_pergunta,texto_resposta,embedding_pergunta\n"+
			"123,Ofício,Dep. X,Pergunta antiga,Resposta antiga,\n"), 0o644))

	out, err := env.run(t, "import", legacy)
	require.NoError(t, err)
	assert.Contains(t, out, "1 registros importados")
	assert.Equal(t, 1, env.embedder.TextCount())
}

func TestReembedCommand(t *testing.T) {
	env := newTestEnv(t)

	// Rows written without embeddings are stale until re-embedded.
	require.NoError(t, os.WriteFile(env.csvPath, []byte(
		"processo_sei,tipo_documento,autoria,texto_pergunta,texto_resposta,embedding_pergunta\n"+
			"1,,,Pergunta um,Resposta um,\n"+
			"2,,,Pergunta dois,Resposta dois,\n"), 0o644))

	out, err := env.run(t, "show", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "desatualizado")

	_, err = env.run(t, "reembed", "--retry-delay", "1ms")
	require.NoError(t, err)
	assert.Equal(t, 2, env.embedder.TextCount())

	out, err = env.run(t, "show", "0")
	require.NoError(t, err)
	assert.NotContains(t, out, "desatualizado")

	env.embedder.Reset()
	_, err = env.run(t, "reembed", "--all", "--retry-delay", "1ms")
	require.NoError(t, err)
	assert.Equal(t, 2, env.embedder.TextCount())
}

func TestHashPasswordCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.runAs(t, "", "nova-senha\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("nova-senha")))
}

func TestConfigCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.runAs(t, "", "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "csv")
	assert.Contains(t, out, "all-minilm")
	assert.NotContains(t, out, "segredo")
}
