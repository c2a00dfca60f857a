package producer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/pkg/model"
)

const definitionsYAML = `
resources:
  - type: databricks_cluster_policy
    folder: policies
    source:
      file: snapshots/policies.yaml
      items: policies
    id: policy_id
    identity: [name]
    fields:
      name: {path: name}
      definition: {path: definition}
      description: {path: description, optional: true}
      managed: {value: true}
    resourceVariables: [name]
    sharedPatterns:
      definition: ""
    include: ["pol-*"]
`

const policiesYAML = `
policies:
  - policy_id: pol-1
    name: Small Jobs
    definition: '{"spark_version": "13.3"}'
  - policy_id: pol-2
    name: Large Jobs
    definition: '{"spark_version": "14.1"}'
    description: big
`

func newTestClient(t *testing.T) *HTTPClient {
	t.Helper()
	c := NewHTTPClient(HTTPConfig{Timeout: 5 * time.Second, RetryMax: 1, Token: "secret"}, nil)
	t.Cleanup(c.CloseIdleConnections)
	return c
}

func TestLoadDefinitions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "snapshots"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resources.yaml"), []byte(definitionsYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshots", "policies.yaml"), []byte(policiesYAML), 0o644))

	defs, err := LoadDefinitions(filepath.Join(dir, "resources.yaml"))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	require.Equal(t, filepath.Join(dir, "snapshots", "policies.yaml"), defs[0].Source.File)
	require.Len(t, defs[0].GeneratorOptions(), 2)

	d, err := NewDeclarative(defs[0], nil)
	require.NoError(t, err)
	require.NoError(t, d.Prepare(context.Background()))
	require.Equal(t, "databricks_cluster_policy", d.ResourceType())
	require.Equal(t, []string{"name"}, d.ResourceVariablePaths())
	require.Equal(t, map[string]string{"definition": ""}, d.SharedPatternPaths())

	var got []model.Record
	for rec, err := range d.Records(context.Background()) {
		require.NoError(t, err)
		fields, err := d.ToFields(rec)
		require.NoError(t, err)
		got = append(got, fields)
	}
	want := []model.Record{
		{"name": "Small Jobs", "definition": `{"spark_version": "13.3"}`, "managed": true},
		{"name": "Large Jobs", "definition": `{"spark_version": "14.1"}`, "description": "big", "managed": true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected fields (-want +got):\n%s", diff)
	}
}

func TestLoadDefinitionsMissingFile(t *testing.T) {
	_, err := LoadDefinitions(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestFileSourcePrepareMissingSnapshot(t *testing.T) {
	d, err := NewDeclarative(Definition{
		Type:   "databricks_job",
		ID:     "job_id",
		Source: SourceDefinition{File: filepath.Join(t.TempDir(), "jobs.json")},
		Fields: map[string]FieldDefinition{"name": {Path: "settings.name"}},
	}, nil)
	require.NoError(t, err)
	require.Error(t, d.Prepare(context.Background()))
}

func TestParseDefinitionsInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
		msg  string
	}{
		{
			name: "unknown_key",
			yaml: "resources:\n  - type: a_b\n    colour: red\n",
			msg:  "colour",
		},
		{
			name: "missing_id_and_fields",
			yaml: "resources:\n  - type: a_b\n    source: {records: [{x: 1}]}\n",
			msg:  "id is required",
		},
		{
			name: "two_sources",
			yaml: "resources:\n  - type: a_b\n    id: x\n    source: {file: a.json, url: 'http://x'}\n    fields: {x: {path: x}}\n",
			msg:  "exactly one origin",
		},
		{
			name: "ambiguous_field",
			yaml: "resources:\n  - type: a_b\n    id: x\n    source: {file: a.json}\n    fields: {x: {path: x, value: 1}}\n",
			msg:  `field "x" must set exactly one`,
		},
		{
			name: "duplicate_type",
			yaml: "resources:\n  - {type: a_b, id: x, source: {file: a.json}, fields: {x: {path: x}}}\n  - {type: a_b, id: x, source: {file: b.json}, fields: {x: {path: x}}}\n",
			msg:  `duplicate resource type "a_b"`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDefinitions([]byte(tc.yaml))
			require.ErrorIs(t, err, errors.ErrConfiguration)
			require.ErrorContains(t, err, tc.msg)
		})
	}
}

func TestDeclarativeIdentity(t *testing.T) {
	d, err := NewDeclarative(Definition{
		Type:     "databricks_job",
		ID:       "job_id",
		Identity: []string{"settings.name", "job_id"},
		Source:   SourceDefinition{Records: []model.Record{{"job_id": 1}}},
		Fields: map[string]FieldDefinition{
			"name":  {Path: "settings.name"},
			"label": {Template: "{{settings.name}} ({{job_id}})"},
		},
	}, nil)
	require.NoError(t, err)

	rec := model.Record{"job_id": float64(42), "settings": map[string]any{"name": "nightly"}}
	id, err := d.Identify(rec)
	require.NoError(t, err)
	require.Equal(t, "42", id)

	identity, err := d.DefineIdentity(rec)
	require.NoError(t, err)
	require.Equal(t, "nightly_42", identity)

	fields, err := d.ToFields(rec)
	require.NoError(t, err)
	require.Equal(t, model.Record{"name": "nightly", "label": "nightly (42)"}, fields)

	_, err = d.Identify(model.Record{"settings": map[string]any{}})
	require.ErrorContains(t, err, `no identifier at "job_id"`)
	_, err = d.DefineIdentity(model.Record{"job_id": "1"})
	require.ErrorContains(t, err, `no identity part at "settings.name"`)
	_, err = d.ToFields(model.Record{"job_id": "1"})
	require.ErrorContains(t, err, `field "label"`)
}

func TestFileSourceKeepsLargeIntegers(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"jobs.json": `[{"job_id": 9007199254740993, "settings": {"max_retries": 9007199254740993, "timeout": 1.5}}]`,
		"jobs.yaml": "- job_id: 9007199254740993\n  settings:\n    max_retries: 9007199254740993\n    timeout: 1.5\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			d, err := NewDeclarative(Definition{
				Type:   "databricks_job",
				ID:     "job_id",
				Source: SourceDefinition{File: path},
				Fields: map[string]FieldDefinition{
					"job_id":   {Path: "job_id"},
					"settings": {Path: "settings"},
				},
			}, nil)
			require.NoError(t, err)

			var recs []model.Record
			for rec, err := range d.Records(context.Background()) {
				require.NoError(t, err)
				recs = append(recs, rec)
			}
			require.Len(t, recs, 1)
			require.Equal(t, json.Number("9007199254740993"), recs[0]["job_id"])

			id, err := d.Identify(recs[0])
			require.NoError(t, err)
			require.Equal(t, "9007199254740993", id)

			fields, err := d.ToFields(recs[0])
			require.NoError(t, err)
			require.Equal(t, model.Record{
				"job_id": json.Number("9007199254740993"),
				"settings": map[string]any{
					"max_retries": json.Number("9007199254740993"),
					"timeout":     json.Number("1.5"),
				},
			}, fields)
		})
	}
}

func TestRenderTemplate(t *testing.T) {
	doc := []byte(`{"path": "/Users/a b/nb", "n": 3}`)
	vars := templateVars{identity: "nb", rawID: "123"}

	got, err := renderTemplate("/export?path={{ path | urlquery }}&id={{$raw_id}}", doc, vars)
	require.NoError(t, err)
	require.Equal(t, "/export?path=%2FUsers%2Fa+b%2Fnb&id=123", got)

	got, err = renderTemplate("{{$identity}}.{{n}}.py", doc, vars)
	require.NoError(t, err)
	require.Equal(t, "nb.3.py", got)

	_, err = renderTemplate("{{missing}}", doc, vars)
	require.ErrorContains(t, err, `nothing at "missing"`)
}

func TestHTTPSourcePagination(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		token := r.URL.Query().Get("page_token")
		pages = append(pages, token)
		switch token {
		case "":
			fmt.Fprint(w, `{"jobs": [{"job_id": 1}, {"job_id": 2}], "next_page_token": "p2"}`)
		case "p2":
			fmt.Fprint(w, `{"jobs": [{"job_id": 3}]}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	src := &HTTPSource{
		Client:        newTestClient(t),
		URL:           srv.URL + "/api/2.1/jobs/list?limit=2",
		Items:         "jobs",
		NextPageToken: "next_page_token",
	}
	require.NoError(t, src.Prepare(context.Background()))

	var ids []any
	for rec, err := range src.Records(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, rec["job_id"])
	}
	require.Equal(t, []any{json.Number("1"), json.Number("2"), json.Number("3")}, ids)
	require.Equal(t, []string{"", "p2"}, pages)
}

func TestHTTPSourceRepeatedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [], "next": "same"}`)
	}))
	defer srv.Close()

	src := &HTTPSource{Client: newTestClient(t), URL: srv.URL, Items: "items", NextPageToken: "next"}
	var last error
	for _, err := range src.Records(context.Background()) {
		last = err
	}
	require.ErrorContains(t, last, `page token "same" repeated`)
}

func TestHTTPSourceStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := &HTTPSource{Client: newTestClient(t), URL: srv.URL}
	var last error
	for _, err := range src.Records(context.Background()) {
		last = err
	}
	require.ErrorContains(t, last, "unexpected status 403")

	require.Error(t, (&HTTPSource{URL: "ftp://host/list"}).Prepare(context.Background()))
}

func TestDeclarativeArtifacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Users/me/etl", r.URL.Query().Get("path"))
		fmt.Fprintf(w, `{"content": %q}`, base64.StdEncoding.EncodeToString([]byte("print('hi')\n")))
	}))
	defer srv.Close()

	client := newTestClient(t)
	d, err := NewDeclarative(Definition{
		Type:   "databricks_notebook",
		ID:     "object_id",
		Source: SourceDefinition{Records: []model.Record{{"object_id": "1"}}},
		Fields: map[string]FieldDefinition{"path": {Path: "path"}},
		Artifact: &ArtifactDefinition{
			URL:         srv.URL + "/api/2.0/workspace/export?path={{path | urlquery}}",
			Name:        "{{$identity}}.py",
			ContentPath: "content",
			Base64:      true,
		},
	}, client)
	require.NoError(t, err)

	artifacts, err := d.Artifacts(model.Record{"object_id": "9", "path": "/Users/me/etl"}, "etl", func(name string) string {
		return filepath.Join("/out/data", name)
	})
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	require.Equal(t, "/out/data/etl.py", artifacts[0].LocalPath())
	require.Contains(t, artifacts[0].RemotePath(), "path=%2FUsers%2Fme%2Fetl")

	content, err := artifacts[0].Content(context.Background())
	require.NoError(t, err)
	require.Equal(t, "print('hi')\n", string(content))
}

func TestHTTPArtifactMissingContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	a := &HTTPArtifact{Client: newTestClient(t), URL: srv.URL, ContentPath: "content"}
	_, err := a.Content(context.Background())
	require.ErrorContains(t, err, `no content at "content"`)
}

func TestNewDeclarativeRequiresClient(t *testing.T) {
	_, err := NewDeclarative(Definition{
		Type:   "databricks_job",
		ID:     "job_id",
		Source: SourceDefinition{URL: "https://host/api/2.1/jobs/list"},
		Fields: map[string]FieldDefinition{"name": {Path: "settings.name"}},
	}, nil)
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestHTTPClientRateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewHTTPClient(HTTPConfig{Timeout: 5 * time.Second, Token: "secret", RequestsPerSecond: 0.01}, nil)
	t.Cleanup(c.CloseIdleConnections)

	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, srv.URL)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
