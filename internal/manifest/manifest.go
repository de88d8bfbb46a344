// Package manifest loads declarative YAML documents describing a set of
// desired Nagios objects, and applies them in order. Manifests are rendered
// as Go templates with the sprig function map before decoding, so values can
// be injected at apply time.
package manifest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"nagctl/internal/nagios"
	"nagctl/internal/reconcile"
	"nagctl/pkg/logging"
)

const subsystem = "Manifest"

// Object is one desired object in a manifest.
type Object struct {
	Type       string                 `yaml:"type"`
	State      string                 `yaml:"state,omitempty"`
	Update     *bool                  `yaml:"update,omitempty"`
	Path       string                 `yaml:"path,omitempty"`
	Parameters map[string]interface{} `yaml:"parameters"`
}

// Manifest is a parsed desired-state document.
type Manifest struct {
	Objects []Object `yaml:"objects"`

	// Source is the file the manifest was loaded from.
	Source string `yaml:"-"`
}

// Load reads, renders, and decodes a manifest file. values are exposed to the
// template as .Values.
func Load(path string, values map[string]string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	rendered, err := render(path, string(data), values)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal([]byte(rendered), &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	m.Source = path

	if len(m.Objects) == 0 {
		return nil, fmt.Errorf("manifest %s declares no objects", path)
	}
	for i, obj := range m.Objects {
		if _, err := nagios.ParseObjectType(obj.Type); err != nil {
			return nil, fmt.Errorf("manifest %s object %d: %w", path, i+1, err)
		}
		if _, err := reconcile.ParseState(obj.State); err != nil {
			return nil, fmt.Errorf("manifest %s object %d: %w", path, i+1, err)
		}
	}

	logging.Debug(subsystem, "Loaded %d object(s) from %s", len(m.Objects), path)
	return &m, nil
}

// render executes the manifest as a template with sprig functions.
func render(name, text string, values map[string]string) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse manifest template %s: %w", name, err)
	}

	var buf bytes.Buffer
	data := map[string]interface{}{"Values": values}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render manifest %s: %w", name, err)
	}
	return buf.String(), nil
}

// Request builds the reconciliation request for one manifest object, layered
// over the base options (config paths, validate, backup).
func (o Object) Request(base reconcile.Request) (reconcile.Request, error) {
	req := base

	t, err := nagios.ParseObjectType(o.Type)
	if err != nil {
		return req, err
	}
	state, err := reconcile.ParseState(o.State)
	if err != nil {
		return req, err
	}

	req.Type = t
	req.State = state
	req.Parameters = o.Parameters
	req.Update = true
	if o.Update != nil {
		req.Update = *o.Update
	}
	if o.Path != "" {
		req.Path = o.Path
	}
	return req, nil
}

// ApplyAll reconciles every object in order. The run stops at the first
// failed result; the results produced so far are always returned.
func ApplyAll(ctx context.Context, r *reconcile.Reconciler, m *Manifest, base reconcile.Request) []reconcile.Result {
	var results []reconcile.Result
	for i, obj := range m.Objects {
		req, err := obj.Request(base)
		if err != nil {
			results = append(results, reconcile.Result{
				Failed:  true,
				Message: fmt.Sprintf("object %d: %v", i+1, err),
			})
			return results
		}

		res := r.Apply(ctx, req)
		results = append(results, res)
		if res.Failed {
			logging.Warn(subsystem, "Stopping at object %d of %s: %s", i+1, m.Source, res.Message)
			return results
		}
	}
	return results
}
