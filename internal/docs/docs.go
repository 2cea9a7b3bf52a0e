// Package docs carries the OpenAPI description of the function URL endpoint.
package docs

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/brendan.keane/paramfn/internal/errors"
	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"github.com/pb33f/libopenapi/orderedmap"
)

//go:embed openapi.yaml
var embedded []byte

// Raw returns the embedded OpenAPI document.
func Raw() []byte {
	out := make([]byte, len(embedded))
	copy(out, embedded)
	return out
}

// Operation is one method on one path.
type Operation struct {
	Path        string
	Method      string
	Summary     string
	Description string
	RequestBody *v3.RequestBody
	Responses   *v3.Responses
}

type Docs struct {
	model *libopenapi.DocumentModel[v3.Document]
}

// Load parses the embedded document.
func Load() (*Docs, error) {
	return Parse(embedded)
}

// Parse parses an OpenAPI 3 document.
func Parse(data []byte) (*Docs, error) {
	document, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "parsing OpenAPI document")
	}

	model, errs := document.BuildV3Model()
	if len(errs) > 0 {
		return nil, errors.Newf(errors.ErrorTypeInternal, "building v3 model: %v", errs)
	}

	return &Docs{model: model}, nil
}

func (d *Docs) Info() *base.Info {
	return d.model.Model.Info
}

func (d *Docs) Servers() []*v3.Server {
	return d.model.Model.Servers
}

func (d *Docs) Security() []*base.SecurityRequirement {
	return d.model.Model.Security
}

func (d *Docs) SecuritySchemes() *orderedmap.Map[string, *v3.SecurityScheme] {
	if d.model.Model.Components == nil {
		return nil
	}
	return d.model.Model.Components.SecuritySchemes
}

// Operations lists operations in document order.
func (d *Docs) Operations() []Operation {
	var ops []Operation
	if d.model.Model.Paths == nil || d.model.Model.Paths.PathItems == nil {
		return ops
	}

	for path, item := range d.model.Model.Paths.PathItems.FromOldest() {
		for _, m := range []struct {
			method string
			op     *v3.Operation
		}{
			{"GET", item.Get},
			{"POST", item.Post},
			{"PUT", item.Put},
			{"DELETE", item.Delete},
			{"PATCH", item.Patch},
		} {
			if m.op == nil {
				continue
			}
			ops = append(ops, Operation{
				Path:        path,
				Method:      m.method,
				Summary:     m.op.Summary,
				Description: strings.TrimSpace(m.op.Description),
				RequestBody: m.op.RequestBody,
				Responses:   m.op.Responses,
			})
		}
	}
	return ops
}

// ServerURL returns the first server URL with its variables substituted by
// their defaults.
func (d *Docs) ServerURL() string {
	servers := d.Servers()
	if len(servers) == 0 {
		return ""
	}
	url := servers[0].URL
	if servers[0].Variables != nil {
		for name, v := range servers[0].Variables.FromOldest() {
			url = strings.ReplaceAll(url, fmt.Sprintf("{%s}", name), v.Default)
		}
	}
	return url
}
