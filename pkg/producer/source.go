package producer

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"sigs.k8s.io/yaml"

	"github.com/iacexport/iacexport/pkg/model"
)

// RecordSource lists raw records for a declarative producer.
type RecordSource interface {
	Records(ctx context.Context) iter.Seq2[model.Record, error]
}

// FileSource reads records from a JSON or YAML snapshot file.
type FileSource struct {
	Path string
	// Items is the gjson path of the record list. Empty means the document
	// itself is the list.
	Items string
}

var (
	_ RecordSource = (*FileSource)(nil)
	_ Preparer     = (*FileSource)(nil)
)

func (s *FileSource) Prepare(context.Context) error {
	info, err := os.Stat(s.Path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", s.Path)
	}
	return nil
}

func (s *FileSource) Records(ctx context.Context) iter.Seq2[model.Record, error] {
	return func(yield func(model.Record, error) bool) {
		doc, err := readDocument(s.Path)
		if err != nil {
			yield(nil, err)
			return
		}
		items, err := recordList(doc, s.Items)
		if err != nil {
			yield(nil, fmt.Errorf("%s: %w", s.Path, err))
			return
		}
		for _, rec := range items {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// readDocument returns the JSON form of a JSON or YAML file.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: invalid JSON document", path)
	}
	return data, nil
}

func recordList(doc []byte, items string) ([]model.Record, error) {
	list := gjson.ParseBytes(doc)
	if items != "" {
		list = gjson.GetBytes(doc, items)
		if !list.Exists() {
			// an absent list is an empty listing
			return nil, nil
		}
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("records at %q are not a list", items)
	}

	var out []model.Record
	for i, item := range list.Array() {
		if !item.IsObject() {
			return nil, fmt.Errorf("record %d is not an object", i)
		}
		v, err := resultValue(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, v.(map[string]any))
	}
	return out, nil
}

// resultValue decodes a gjson result with numbers kept as json.Number, so
// integer identifiers above 2^53 are not rounded.
func resultValue(res gjson.Result) (any, error) {
	if res.Raw == "" {
		return res.Value(), nil
	}
	dec := json.NewDecoder(strings.NewReader(res.Raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// HTTPSource lists records from a paginated JSON endpoint.
type HTTPSource struct {
	Client *HTTPClient
	URL    string
	Items  string
	// NextPageToken is the gjson path of the continuation token in a response.
	NextPageToken string
	// PageTokenParam is the query parameter the token is sent back with.
	PageTokenParam string
}

var _ RecordSource = (*HTTPSource)(nil)

func (s *HTTPSource) Prepare(context.Context) error {
	u, err := url.Parse(s.URL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	return nil
}

func (s *HTTPSource) Records(ctx context.Context) iter.Seq2[model.Record, error] {
	return func(yield func(model.Record, error) bool) {
		seen := map[string]struct{}{}
		token := ""
		for {
			pageURL, err := s.pageURL(token)
			if err != nil {
				yield(nil, err)
				return
			}
			body, err := s.Client.Get(ctx, pageURL)
			if err != nil {
				yield(nil, err)
				return
			}
			items, err := recordList(body, s.Items)
			if err != nil {
				yield(nil, fmt.Errorf("%s: %w", pageURL, err))
				return
			}
			for _, rec := range items {
				if !yield(rec, nil) {
					return
				}
			}

			if s.NextPageToken == "" {
				return
			}
			token = gjson.GetBytes(body, s.NextPageToken).String()
			if token == "" {
				return
			}
			if _, ok := seen[token]; ok {
				yield(nil, fmt.Errorf("%s: page token %q repeated", s.URL, token))
				return
			}
			seen[token] = struct{}{}
		}
	}
}

func (s *HTTPSource) pageURL(token string) (string, error) {
	if token == "" {
		return s.URL, nil
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(cmp.Or(s.PageTokenParam, "page_token"), token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// StaticSource serves records held in memory.
type StaticSource []model.Record

func (s StaticSource) Records(context.Context) iter.Seq2[model.Record, error] {
	return func(yield func(model.Record, error) bool) {
		for _, rec := range s {
			if !yield(rec, nil) {
				return
			}
		}
	}
}
