package content

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/roach88/stencil/internal/compiler"
	"github.com/roach88/stencil/internal/directive"
	"github.com/roach88/stencil/internal/model"
)

// FormspreeURL is the form action prefix when a form gives no action.
const FormspreeURL = "https://formspree.io/"

// formAllowedTypes are the directives a contact form may use. Other types
// fall back to text.
var formAllowedTypes = map[string]bool{
	"choice": true,
	"date":   true,
	"text":   true,
	"link":   true,
	"number": true,
}

//go:embed form.html
var formSource string

var formTemplate = template.Must(template.New("form").Parse(formSource))

type formView struct {
	Action  string
	Subject string
	Next    string
	Submit  string
	Fields  []template.HTML
}

// FormHTML renders a contact form branch:
// {{#form contact recipient=... subject=... next=... submit=...}}.
// The recipient defaults to the first user's email.
func (s *Service) FormHTML(ctx context.Context, branch *compiler.Branch) (string, error) {
	fields := make(map[string]model.Params, len(branch.Fields))
	for _, f := range branch.Fields {
		if model.IsSpecialField(f.Key) || f.Context != "" {
			continue
		}
		params := f.Params.Clone()
		if t := params["type"]; t != "" && !formAllowedTypes[t] {
			delete(params, "type")
		}
		fields[f.Key] = params
	}

	action := branch.Params["action"]
	if action == "" {
		recipient := branch.Params["recipient"]
		if recipient == "" {
			user, err := s.store.FirstUser(ctx)
			switch {
			case err == nil:
				recipient = user.Email
			case !model.IsNotFound(err):
				return "", err
			}
		}
		action = FormspreeURL + recipient
	}

	view := formView{
		Action:  action,
		Subject: branch.Params["subject"],
		Next:    branch.Params["next"],
		Submit:  branch.Params["submit"],
	}
	if view.Submit == "" {
		view.Submit = "Submit"
	}

	sorted := (&model.Section{Fields: fields}).SortedFields()
	for _, f := range sorted {
		view.Fields = append(view.Fields, template.HTML(FormField(s.directives, f.Name, f.Name, f.Params, nil, "")))
	}

	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render form %q: %w", branch.Name, err)
	}
	return buf.String(), nil
}

// FormField renders one labelled input with its help or error text.
func FormField(reg *directive.Registry, name, label string, params model.Params, value any, errMsg string) string {
	d := reg.Find(params)

	class := "field"
	if errMsg != "" {
		class = "error " + class
	}
	if d.Required() {
		class = "required " + class
	}

	if l := params["label"]; l != "" {
		label = l
	} else {
		label = model.StartCase(label)
	}

	small := errMsg
	if small == "" {
		small = params["help"]
	}

	return fmt.Sprintf(`<div class="%s"><label>%s</label>%s<small>%s</small></div>`,
		class, directive.Escape(label), d.Input(name, value), directive.Escape(small))
}
