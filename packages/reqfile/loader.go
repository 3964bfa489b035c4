package reqfile

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zestclient/zest/packages/http"
)

// File is the on-disk request description. YAML and JSON documents
// share this shape; auth and body sections are tagged with a "type"
// discriminator.
type File struct {
	Method      string            `yaml:"method" json:"method"`
	URL         string            `yaml:"url" json:"url"`
	Headers     map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	QueryParams map[string]string `yaml:"query_params,omitempty" json:"query_params,omitempty"`
	Auth        *AuthSection      `yaml:"auth,omitempty" json:"auth,omitempty"`
	Body        *BodySection      `yaml:"body,omitempty" json:"body,omitempty"`
	Cookies     []CookieSection   `yaml:"cookies,omitempty" json:"cookies,omitempty"`

	TimeoutMs       *uint32       `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty"`
	FollowRedirects *bool         `yaml:"follow_redirects,omitempty" json:"follow_redirects,omitempty"`
	MaxRedirects    *uint32       `yaml:"max_redirects,omitempty" json:"max_redirects,omitempty"`
	VerifySSL       *bool         `yaml:"verify_ssl,omitempty" json:"verify_ssl,omitempty"`
	Proxy           *ProxySection `yaml:"proxy,omitempty" json:"proxy,omitempty"`
}

type AuthSection struct {
	Type     string `yaml:"type" json:"type"` // none | basic | bearer | api_key
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	Token    string `yaml:"token,omitempty" json:"token,omitempty"`
	Key      string `yaml:"key,omitempty" json:"key,omitempty"`
	Value    string `yaml:"value,omitempty" json:"value,omitempty"`
	In       string `yaml:"in,omitempty" json:"in,omitempty"` // header | query
}

type BodySection struct {
	Type        string            `yaml:"type" json:"type"` // none | raw | form | multipart | binary
	Content     string            `yaml:"content,omitempty" json:"content,omitempty"`
	ContentType string            `yaml:"content_type,omitempty" json:"content_type,omitempty"`
	Fields      map[string]string `yaml:"fields,omitempty" json:"fields,omitempty"`
	Parts       []PartSection     `yaml:"parts,omitempty" json:"parts,omitempty"`
	DataBase64  string            `yaml:"data_base64,omitempty" json:"data_base64,omitempty"`
	Filename    string            `yaml:"filename,omitempty" json:"filename,omitempty"`
}

type PartSection struct {
	Name        string `yaml:"name" json:"name"`
	Value       string `yaml:"value,omitempty" json:"value,omitempty"`
	File        string `yaml:"file,omitempty" json:"file,omitempty"` // path, resolved against the request file
	Filename    string `yaml:"filename,omitempty" json:"filename,omitempty"`
	ContentType string `yaml:"content_type,omitempty" json:"content_type,omitempty"`
}

type CookieSection struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

type ProxySection struct {
	URL      string `yaml:"url" json:"url"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Load reads a request file (YAML or JSON; JSON is parsed by the YAML
// decoder) and lowers it into an engine Request. Relative multipart
// file paths resolve against the request file's directory.
func Load(path string) (*http.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse lowers a request document into an engine Request. baseDir is
// the directory multipart file parts resolve against; empty means the
// current directory.
func Parse(data []byte, baseDir string) (*http.Request, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing request file: %w", err)
	}

	if file.Method == "" {
		return nil, fmt.Errorf("request file: method is required")
	}
	if file.URL == "" {
		return nil, fmt.Errorf("request file: url is required")
	}

	req := &http.Request{
		Method:          strings.ToUpper(file.Method),
		URL:             file.URL,
		Headers:         file.Headers,
		QueryParams:     file.QueryParams,
		Auth:            http.AuthNone{},
		Body:            http.BodyNone{},
		TimeoutMs:       file.TimeoutMs,
		FollowRedirects: file.FollowRedirects,
		MaxRedirects:    file.MaxRedirects,
		VerifySSL:       file.VerifySSL,
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	if req.QueryParams == nil {
		req.QueryParams = map[string]string{}
	}

	auth, err := lowerAuth(file.Auth)
	if err != nil {
		return nil, err
	}
	req.Auth = auth

	body, err := lowerBody(file.Body, baseDir)
	if err != nil {
		return nil, err
	}
	req.Body = body

	for _, c := range file.Cookies {
		req.Cookies = append(req.Cookies, http.Cookie{Name: c.Name, Value: c.Value})
	}

	if file.Proxy != nil {
		req.Proxy = &http.Proxy{
			URL:      file.Proxy.URL,
			Username: file.Proxy.Username,
			Password: file.Proxy.Password,
		}
	}

	return req, nil
}

func lowerAuth(section *AuthSection) (http.Auth, error) {
	if section == nil {
		return http.AuthNone{}, nil
	}
	switch section.Type {
	case "", "none":
		return http.AuthNone{}, nil
	case "basic":
		return http.AuthBasic{Username: section.Username, Password: section.Password}, nil
	case "bearer":
		return http.AuthBearer{Token: section.Token}, nil
	case "api_key":
		in := http.APIKeyInHeader
		switch section.In {
		case "", "header":
		case "query":
			in = http.APIKeyInQuery
		default:
			return nil, fmt.Errorf("request file: unknown api_key location %q", section.In)
		}
		return http.AuthAPIKey{Key: section.Key, Value: section.Value, In: in}, nil
	default:
		return nil, fmt.Errorf("request file: unknown auth type %q", section.Type)
	}
}

func lowerBody(section *BodySection, baseDir string) (http.Body, error) {
	if section == nil {
		return http.BodyNone{}, nil
	}
	switch section.Type {
	case "", "none":
		return http.BodyNone{}, nil
	case "raw":
		return http.BodyRaw{Content: section.Content, ContentType: section.ContentType}, nil
	case "form":
		return http.BodyForm{Fields: section.Fields}, nil
	case "multipart":
		fields := make([]http.MultipartField, 0, len(section.Parts))
		for _, part := range section.Parts {
			if part.File == "" {
				fields = append(fields, http.MultipartField{Name: part.Name, Value: part.Value})
				continue
			}
			filePath := part.File
			if !filepath.IsAbs(filePath) && baseDir != "" {
				filePath = filepath.Join(baseDir, filePath)
			}
			data, err := os.ReadFile(filePath)
			if err != nil {
				return nil, fmt.Errorf("reading multipart file part %q: %w", part.Name, err)
			}
			filename := part.Filename
			if filename == "" {
				filename = filepath.Base(filePath)
			}
			fields = append(fields, http.MultipartField{
				Name: part.Name,
				File: &http.FilePart{
					Data:        data,
					Filename:    filename,
					ContentType: part.ContentType,
				},
			})
		}
		return http.BodyMultipart{Fields: fields}, nil
	case "binary":
		data, err := base64.StdEncoding.DecodeString(section.DataBase64)
		if err != nil {
			return nil, fmt.Errorf("request file: decoding binary body: %w", err)
		}
		return http.BodyBinary{Data: data, Filename: section.Filename}, nil
	default:
		return nil, fmt.Errorf("request file: unknown body type %q", section.Type)
	}
}
