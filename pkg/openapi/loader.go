package openapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/realmgen/pkg/config"
	"github.com/blimu-dev/realmgen/pkg/ir"
)

// ValidateDocument reads the description at input and checks it against the
// OpenAPI 3 schema. External references resolve relative to input.
func ValidateDocument(ctx context.Context, input string) error {
	data, err := ReadSource(ctx, input)
	if err != nil {
		return err
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromDataWithPath(data, location(input))
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("validate %s: %w", input, err)
	}
	return nil
}

func location(input string) *url.URL {
	if config.IsURL(input) {
		if u, err := url.Parse(input); err == nil {
			return u
		}
	}
	return &url.URL{Path: filepath.ToSlash(input)}
}

// ReadSource returns the raw bytes of the description at input (file path or HTTP(S) URL)
func ReadSource(ctx context.Context, input string) ([]byte, error) {
	if !config.IsURL(input) {
		return os.ReadFile(input)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", input, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", input, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Load reads and decodes the description at input into the IR
func Load(ctx context.Context, input string) (*ir.Spec, error) {
	data, err := ReadSource(ctx, input)
	if err != nil {
		return nil, err
	}
	spec, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	return spec, nil
}
