package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/viant/odinmcp"
)

// ResourceHandler produces the content of a plain resource. Strings become
// text contents, []byte becomes a base64 blob, anything else is JSON-encoded.
type ResourceHandler func(ctx context.Context) (interface{}, error)

// TemplateHandler produces the content of a templated resource; params holds
// the values extracted from the URI placeholders.
type TemplateHandler func(ctx context.Context, params map[string]string) (interface{}, error)

var placeholderExpr = regexp.MustCompile(`\{(\w+)\}`)

type resourceEntry struct {
	resource odinmcp.Resource
	handler  ResourceHandler
}

type templateEntry struct {
	template odinmcp.ResourceTemplate
	matcher  *regexp.Regexp
	params   []string
	handler  TemplateHandler
}

// Resources is the resource table: plain URIs plus {param} templates.
type Resources struct {
	resources map[string]*resourceEntry
	templates []*templateEntry
}

// NewResources creates an empty resource table.
func NewResources() *Resources {
	return &Resources{resources: map[string]*resourceEntry{}}
}

// Add registers a plain resource; duplicate URIs fail.
func (r *Resources) Add(resource odinmcp.Resource, handler ResourceHandler) error {
	if resource.URI == "" {
		return fmt.Errorf("resource uri is required")
	}
	if handler == nil {
		return fmt.Errorf("resource %v requires a handler", resource.URI)
	}
	if placeholderExpr.MatchString(resource.URI) {
		return fmt.Errorf("resource %v contains template placeholders; register it as a template", resource.URI)
	}
	if _, ok := r.resources[resource.URI]; ok {
		return fmt.Errorf("resource %v is already registered", resource.URI)
	}
	r.resources[resource.URI] = &resourceEntry{resource: resource, handler: handler}
	return nil
}

// AddTemplate registers a templated resource. The URI placeholders must match
// the declared handler parameters exactly, otherwise registration fails.
func (r *Resources) AddTemplate(template odinmcp.ResourceTemplate, params []string, handler TemplateHandler) error {
	if template.URITemplate == "" {
		return fmt.Errorf("resource template uri is required")
	}
	if handler == nil {
		return fmt.Errorf("resource template %v requires a handler", template.URITemplate)
	}
	placeholders := map[string]bool{}
	for _, match := range placeholderExpr.FindAllStringSubmatch(template.URITemplate, -1) {
		placeholders[match[1]] = true
	}
	declared := map[string]bool{}
	for _, param := range params {
		declared[param] = true
	}
	if len(placeholders) != len(declared) {
		return fmt.Errorf("mismatch between URI parameters %v and handler parameters %v", keys(placeholders), params)
	}
	for param := range declared {
		if !placeholders[param] {
			return fmt.Errorf("mismatch between URI parameters %v and handler parameters %v", keys(placeholders), params)
		}
	}
	matcher, err := compileTemplate(template.URITemplate)
	if err != nil {
		return err
	}
	r.templates = append(r.templates, &templateEntry{
		template: template,
		matcher:  matcher,
		params:   orderedPlaceholders(template.URITemplate),
		handler:  handler,
	})
	return nil
}

// List returns the registered plain resources in URI order.
func (r *Resources) List() []odinmcp.Resource {
	result := make([]odinmcp.Resource, 0, len(r.resources))
	for _, entry := range r.resources {
		result = append(result, entry.resource)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].URI < result[j].URI })
	return result
}

// ListTemplates returns the registered resource templates.
func (r *Resources) ListTemplates() []odinmcp.ResourceTemplate {
	result := make([]odinmcp.ResourceTemplate, 0, len(r.templates))
	for _, entry := range r.templates {
		result = append(result, entry.template)
	}
	return result
}

// Read resolves a URI against plain resources first, then templates.
func (r *Resources) Read(ctx context.Context, uri string) (*odinmcp.ResourceContents, error) {
	if entry, ok := r.resources[uri]; ok {
		value, err := entry.handler(ctx)
		if err != nil {
			return nil, err
		}
		return asContents(uri, entry.resource.MimeType, value)
	}
	for _, entry := range r.templates {
		match := entry.matcher.FindStringSubmatch(uri)
		if match == nil {
			continue
		}
		params := map[string]string{}
		for i, name := range entry.params {
			params[name] = match[i+1]
		}
		value, err := entry.handler(ctx, params)
		if err != nil {
			return nil, err
		}
		return asContents(uri, entry.template.MimeType, value)
	}
	return nil, odinmcp.NewInvalidParamsError(fmt.Sprintf("unknown resource: %v", uri), nil)
}

func asContents(uri, mimeType string, value interface{}) (*odinmcp.ResourceContents, error) {
	contents := &odinmcp.ResourceContents{URI: uri, MimeType: mimeType}
	switch actual := value.(type) {
	case string:
		contents.Text = actual
		if contents.MimeType == "" {
			contents.MimeType = "text/plain"
		}
	case []byte:
		contents.Blob = base64.StdEncoding.EncodeToString(actual)
		if contents.MimeType == "" {
			contents.MimeType = "application/octet-stream"
		}
	default:
		data, err := json.Marshal(actual)
		if err != nil {
			return nil, fmt.Errorf("failed to convert resource %v content: %w", uri, err)
		}
		contents.Text = string(data)
		if contents.MimeType == "" {
			contents.MimeType = "application/json"
		}
	}
	return contents, nil
}

func compileTemplate(uriTemplate string) (*regexp.Regexp, error) {
	var builder strings.Builder
	builder.WriteString("^")
	remaining := uriTemplate
	for {
		match := placeholderExpr.FindStringIndex(remaining)
		if match == nil {
			builder.WriteString(regexp.QuoteMeta(remaining))
			break
		}
		builder.WriteString(regexp.QuoteMeta(remaining[:match[0]]))
		builder.WriteString(`([^/]+)`)
		remaining = remaining[match[1]:]
	}
	builder.WriteString("$")
	matcher, err := regexp.Compile(builder.String())
	if err != nil {
		return nil, fmt.Errorf("invalid resource template %v: %w", uriTemplate, err)
	}
	return matcher, nil
}

func orderedPlaceholders(uriTemplate string) []string {
	var result []string
	for _, match := range placeholderExpr.FindAllStringSubmatch(uriTemplate, -1) {
		result = append(result, match[1])
	}
	return result
}

func keys(set map[string]bool) []string {
	result := make([]string, 0, len(set))
	for key := range set {
		result = append(result, key)
	}
	sort.Strings(result)
	return result
}
