package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"sigs.k8s.io/yaml"

	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/pkg/model"
)

// Definitions is the top level of a resource definitions file.
type Definitions struct {
	Resources []Definition `json:"resources"`
}

// Definition declares a producer without code. Paths in ID, Identity and
// Fields are gjson paths evaluated against the raw record.
type Definition struct {
	Type              string                     `json:"type"`
	Folder            string                     `json:"folder,omitempty"`
	Source            SourceDefinition           `json:"source"`
	ID                string                     `json:"id"`
	Identity          []string                   `json:"identity,omitempty"`
	Fields            map[string]FieldDefinition `json:"fields"`
	Annotations       map[string][]string        `json:"annotations,omitempty"`
	ResourceVariables []string                   `json:"resourceVariables,omitempty"`
	SharedPatterns    map[string]string          `json:"sharedPatterns,omitempty"`
	Include           []string                   `json:"include,omitempty"`
	Artifact          *ArtifactDefinition        `json:"artifact,omitempty"`
}

type SourceDefinition struct {
	// File is a JSON or YAML snapshot, relative to the definitions file.
	File string `json:"file,omitempty"`
	// URL is a JSON listing endpoint.
	URL            string         `json:"url,omitempty"`
	NextPageToken  string         `json:"nextPageToken,omitempty"`
	PageTokenParam string         `json:"pageTokenParam,omitempty"`
	Items          string         `json:"items,omitempty"`
	Records        []model.Record `json:"records,omitempty"`
}

// FieldDefinition sets exactly one of Path, Value or Template.
type FieldDefinition struct {
	Path     string `json:"path,omitempty"`
	Value    any    `json:"value,omitempty"`
	Template string `json:"template,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// ArtifactDefinition describes one artifact downloaded per record. URL and
// Name are templates.
type ArtifactDefinition struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	ContentPath string `json:"contentPath,omitempty"`
	Base64      bool   `json:"base64,omitempty"`
}

// LoadDefinitions reads a resource definitions file. Snapshot files are
// resolved relative to it.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Configurationf("check the resources setting", "read resource definitions: %v", err)
	}
	defs, err := ParseDefinitions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range defs {
		if f := defs[i].Source.File; f != "" && !filepath.IsAbs(f) {
			defs[i].Source.File = filepath.Join(dir, f)
		}
	}
	return defs, nil
}

func ParseDefinitions(data []byte) ([]Definition, error) {
	var doc Definitions
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, errors.Configurationf("", "parse resource definitions: %v", err)
	}

	var errs []error
	seen := map[string]struct{}{}
	for i, def := range doc.Resources {
		if err := def.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("resources[%d]: %w", i, err))
			continue
		}
		if _, ok := seen[def.Type]; ok {
			errs = append(errs, errors.Configurationf("", "resources[%d]: duplicate resource type %q", i, def.Type))
		}
		seen[def.Type] = struct{}{}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return doc.Resources, nil
}

func (d Definition) Validate() error {
	var errs []error
	if d.Type == "" {
		errs = append(errs, errors.Configurationf("", "type is required"))
	}
	if d.ID == "" {
		errs = append(errs, errors.Configurationf("", "%s: id is required", d.Type))
	}
	if len(d.Fields) == 0 {
		errs = append(errs, errors.Configurationf("", "%s: at least one field is required", d.Type))
	}

	sources := 0
	for _, set := range []bool{d.Source.File != "", d.Source.URL != "", len(d.Source.Records) > 0} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		errs = append(errs, errors.Configurationf("set one of file, url or records", "%s: source must have exactly one origin", d.Type))
	}

	for _, name := range slices.Sorted(maps.Keys(d.Fields)) {
		f := d.Fields[name]
		set := 0
		for _, ok := range []bool{f.Path != "", f.Value != nil, f.Template != ""} {
			if ok {
				set++
			}
		}
		if set != 1 {
			errs = append(errs, errors.Configurationf("", "%s: field %q must set exactly one of path, value or template", d.Type, name))
		}
	}

	if d.Artifact != nil && d.Artifact.URL == "" {
		errs = append(errs, errors.Configurationf("", "%s: artifact url is required", d.Type))
	}
	return errors.Join(errs...)
}

// GeneratorOptions returns the options the definition implies.
func (d Definition) GeneratorOptions() []GeneratorOption {
	var opts []GeneratorOption
	if d.Folder != "" {
		opts = append(opts, WithFolder(d.Folder))
	}
	if len(d.Include) > 0 {
		opts = append(opts, WithPatterns(d.Include...))
	}
	return opts
}

// Declarative is a Producer built from a Definition.
type Declarative struct {
	def    Definition
	source RecordSource
	client *HTTPClient
}

var (
	_ Producer         = (*Declarative)(nil)
	_ Preparer         = (*Declarative)(nil)
	_ ArtifactProducer = (*Declarative)(nil)
)

// NewDeclarative builds a producer for def. client is required when def
// reads from a URL or declares an artifact.
func NewDeclarative(def Definition, client *HTTPClient) (*Declarative, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	d := &Declarative{def: def, client: client}
	switch {
	case def.Source.File != "":
		d.source = &FileSource{Path: def.Source.File, Items: def.Source.Items}
	case def.Source.URL != "":
		if client == nil {
			return nil, errors.Configurationf("", "%s: an HTTP client is required for url sources", def.Type)
		}
		d.source = &HTTPSource{
			Client:         client,
			URL:            def.Source.URL,
			Items:          def.Source.Items,
			NextPageToken:  def.Source.NextPageToken,
			PageTokenParam: def.Source.PageTokenParam,
		}
	default:
		d.source = StaticSource(def.Source.Records)
	}

	if def.Artifact != nil && client == nil {
		return nil, errors.Configurationf("", "%s: an HTTP client is required for artifacts", def.Type)
	}
	return d, nil
}

func (d *Declarative) ResourceType() string {
	return d.def.Type
}

func (d *Declarative) Prepare(ctx context.Context) error {
	if p, ok := d.source.(Preparer); ok {
		return p.Prepare(ctx)
	}
	return nil
}

func (d *Declarative) Records(ctx context.Context) iter.Seq2[model.Record, error] {
	return d.source.Records(ctx)
}

func (d *Declarative) Identify(rec model.Record) (string, error) {
	doc, err := recordJSON(rec)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(doc, d.def.ID)
	if !id.Exists() || id.String() == "" {
		return "", fmt.Errorf("no identifier at %q", d.def.ID)
	}
	return id.String(), nil
}

func (d *Declarative) DefineIdentity(rec model.Record) (string, error) {
	if len(d.def.Identity) == 0 {
		return d.Identify(rec)
	}
	doc, err := recordJSON(rec)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(d.def.Identity))
	for _, path := range d.def.Identity {
		v := gjson.GetBytes(doc, path)
		if !v.Exists() {
			return "", fmt.Errorf("no identity part at %q", path)
		}
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "_"), nil
}

func (d *Declarative) ToFields(rec model.Record) (model.Record, error) {
	doc, err := recordJSON(rec)
	if err != nil {
		return nil, err
	}
	out := model.Record{}
	for _, name := range slices.Sorted(maps.Keys(d.def.Fields)) {
		f := d.def.Fields[name]
		switch {
		case f.Value != nil:
			out[name] = f.Value
		case f.Template != "":
			v, err := renderTemplate(f.Template, doc, templateVars{})
			if err != nil {
				if f.Optional {
					continue
				}
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			out[name] = v
		default:
			v := gjson.GetBytes(doc, f.Path)
			if !v.Exists() {
				if f.Optional {
					continue
				}
				return nil, fmt.Errorf("field %q: nothing at %q", name, f.Path)
			}
			value, err := resultValue(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			out[name] = value
		}
	}
	return out, nil
}

func (d *Declarative) AnnotationPaths() map[string][]string {
	return maps.Clone(d.def.Annotations)
}

func (d *Declarative) ResourceVariablePaths() []string {
	return slices.Clone(d.def.ResourceVariables)
}

func (d *Declarative) SharedPatternPaths() map[string]string {
	return maps.Clone(d.def.SharedPatterns)
}

func (d *Declarative) Artifacts(rec model.Record, identity string, dataPath DataPathFunc) ([]model.Artifact, error) {
	a := d.def.Artifact
	if a == nil {
		return nil, nil
	}
	doc, err := recordJSON(rec)
	if err != nil {
		return nil, err
	}
	rawID, err := d.Identify(rec)
	if err != nil {
		return nil, err
	}
	vars := templateVars{identity: identity, rawID: rawID}

	remote, err := renderTemplate(a.URL, doc, vars)
	if err != nil {
		return nil, fmt.Errorf("artifact url: %w", err)
	}
	name := identity
	if a.Name != "" {
		if name, err = renderTemplate(a.Name, doc, vars); err != nil {
			return nil, fmt.Errorf("artifact name: %w", err)
		}
	}

	return []model.Artifact{&HTTPArtifact{
		Client:      d.client,
		URL:         remote,
		Local:       dataPath(name),
		ContentPath: a.ContentPath,
		Base64:      a.Base64,
	}}, nil
}

func recordJSON(rec model.Record) ([]byte, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return doc, nil
}

type templateVars struct {
	identity string
	rawID    string
}

var templateExpr = regexp.MustCompile(`\{\{\s*([^{}|]+?)\s*(\|\s*urlquery\s*)?\}\}`)

// renderTemplate replaces {{path}} with the gjson value at path, and
// {{$identity}} / {{$raw_id}} with the object's identifiers. A trailing
// "| urlquery" query-escapes the value.
func renderTemplate(tmpl string, doc []byte, vars templateVars) (string, error) {
	var errs []error
	out := templateExpr.ReplaceAllStringFunc(tmpl, func(m string) string {
		sub := templateExpr.FindStringSubmatch(m)
		expr, escape := sub[1], sub[2] != ""

		var v string
		switch expr {
		case "$identity":
			v = vars.identity
		case "$raw_id":
			v = vars.rawID
		default:
			res := gjson.GetBytes(doc, expr)
			if !res.Exists() {
				errs = append(errs, fmt.Errorf("nothing at %q", expr))
				return m
			}
			v = res.String()
		}
		if escape {
			v = url.QueryEscape(v)
		}
		return v
	})
	return out, errors.Join(errs...)
}
