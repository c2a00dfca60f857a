package producer

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/iacexport/iacexport/pkg/model"
)

// HTTPArtifact downloads its content with an HTTPClient. When ContentPath
// is set the response is JSON and the content is the string found there.
type HTTPArtifact struct {
	Client      *HTTPClient
	URL         string
	Local       string
	ContentPath string
	Base64      bool
}

var _ model.Artifact = (*HTTPArtifact)(nil)

func (a *HTTPArtifact) RemotePath() string {
	return a.URL
}

func (a *HTTPArtifact) LocalPath() string {
	return a.Local
}

func (a *HTTPArtifact) Content(ctx context.Context) ([]byte, error) {
	body, err := a.Client.Get(ctx, a.URL)
	if err != nil {
		return nil, err
	}

	content := body
	if a.ContentPath != "" {
		v := gjson.GetBytes(body, a.ContentPath)
		if !v.Exists() {
			return nil, fmt.Errorf("%s: no content at %q", a.URL, a.ContentPath)
		}
		content = []byte(v.String())
	}

	if a.Base64 {
		decoded, err := base64.StdEncoding.DecodeString(string(content))
		if err != nil {
			return nil, fmt.Errorf("%s: decode content: %w", a.URL, err)
		}
		content = decoded
	}
	return content, nil
}
