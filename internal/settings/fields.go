package settings

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// Field is one entry on the settings page. Adapters to a host framework
// register each field and call Render and Validate.
type Field struct {
	Key    string
	Label  string
	Render func(ctx context.Context) (string, error)
	// Validate turns the submitted form into the value to store.
	Validate func(ctx context.Context, form url.Values) (interface{}, error)
	// submitted reports whether the form carries this field.
	submitted func(form url.Values) bool
}

func (f Field) Submitted(form url.Values) bool {
	if f.submitted != nil {
		return f.submitted(form)
	}
	_, ok := form[f.Key]
	return ok
}

const (
	SectionKey       = "tinypng_settings"
	SectionTitle     = "PNG and JPEG compression"
	sizesPresentName = "tinypng_sizes_present"
	developersURL    = "https://tinypng.com/developers"
)

func (s *Settings) Fields() []Field {
	label := "TinyPNG API key"
	if s.opts.NetworkActivated {
		label = "Multisite API key"
	}
	return []Field{
		{
			Key:      APIKeyOption,
			Label:    label,
			Render:   s.RenderAPIKey,
			Validate: s.validateAPIKey,
			submitted: func(form url.Values) bool {
				_, ok := form[APIKeyOption]
				return ok && !s.HasOverride() && !s.opts.NetworkActivated
			},
		},
		{
			Key:      SizesOption,
			Label:    "File compression",
			Render:   s.RenderSizes,
			Validate: s.validateSizes,
			submitted: func(form url.Values) bool {
				if _, ok := form[sizesPresentName]; ok {
					return true
				}
				for name := range form {
					if _, ok := parseSizeField(name); ok {
						return true
					}
				}
				return false
			},
		},
	}
}

func (s *Settings) validateAPIKey(ctx context.Context, form url.Values) (interface{}, error) {
	return strings.TrimSpace(form.Get(APIKeyOption)), nil
}

func (s *Settings) validateSizes(ctx context.Context, form url.Values) (interface{}, error) {
	known := make(map[string]bool)
	for _, size := range s.Sizes(ctx) {
		known[size.Name] = true
	}
	enabled := make(map[string]string)
	for name := range form {
		size, ok := parseSizeField(name)
		if !ok {
			continue
		}
		if !known[size] {
			return nil, fmt.Errorf("unknown image size %q", size)
		}
		if form.Get(name) == "on" {
			enabled[size] = "on"
		}
	}
	return enabled, nil
}

var apiKeyTemplate = template.Must(template.New("api_key").Parse(
	`{{- if .NetworkActivated -}}
{{- if .MultisiteKey -}}
<p>The API key has been installed by the Network Admin.</p>
{{- else if .Key -}}
<p>You have an API key configured. Your Network Admin can change the key.</p>
{{- else -}}
<p>Your Network Admin has not configured an API key yet.</p>
{{- end -}}
{{- else if and .Multisite .MultisiteKey -}}
<p>The API key has been installed by the Network Admin.</p>
{{- else -}}
{{- if .Override -}}
<p>The API key has been configured in the environment.</p>
{{- else -}}
<input type="text" id="{{.Field}}" name="{{.Field}}" value="{{.Key}}" size="40" />
{{- end -}}
{{- if not .Key -}}
<p>Visit <a href="{{.DevelopersURL}}">TinyPNG Developer section</a> to get an API key.</p>
{{- end -}}
{{- end -}}`))

var sizesTemplate = template.Must(template.New("sizes").Parse(
	`<p>You can choose to compress different image sizes created for each upload here.<br/>Remember each additional image size will affect your TinyPNG monthly usage!</p>
<input type="hidden" name="{{.Present}}" value="1" />
{{range .Sizes -}}
<p><input type="checkbox" id="{{$.Prefix}}{{.Name}}" name="{{$.Field}}[{{.Name}}]" value="on"{{if .Tinify}} checked="checked"{{end}}/>
<label for="{{$.Prefix}}{{.Name}}">{{.Name}} - {{.Width}}x{{.Height}}</label></p>
{{end}}`))

func (s *Settings) RenderAPIKey(ctx context.Context) (string, error) {
	data := struct {
		Field            string
		Key              string
		MultisiteKey     string
		Multisite        bool
		NetworkActivated bool
		Override         bool
		DevelopersURL    string
	}{
		Field:            APIKeyOption,
		Key:              s.APIKey(ctx),
		MultisiteKey:     s.MultisiteAPIKey(),
		Multisite:        s.opts.Multisite,
		NetworkActivated: s.opts.NetworkActivated,
		Override:         s.HasOverride(),
		DevelopersURL:    developersURL,
	}
	return execute(apiKeyTemplate, data)
}

func (s *Settings) RenderSizes(ctx context.Context) (string, error) {
	data := map[string]interface{}{
		"Field":   SizesOption,
		"Prefix":  SizesOption + "_",
		"Present": sizesPresentName,
		"Sizes":   s.Sizes(ctx),
	}
	return execute(sizesTemplate, data)
}

func execute(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
