package content

import (
	"context"
	"strconv"

	"github.com/roach88/stencil/internal/compiler"
	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/querysql"
)

// Rendered is the content of one template branch.
type Rendered struct {
	// Form is set for form branches; HTML then replaces the whole block.
	Form bool
	HTML string

	// Records maps field tokens to rendered values, one map per record.
	Records []map[string]string
}

// Value returns the form needed by compiler.Content.
func (r *Rendered) Value() any {
	if r.Form {
		return r.HTML
	}
	return r.Records
}

// SectionContent resolves a branch into renderable content. A non-zero
// recordID restricts the result to that record and fails with a
// *model.NotFoundError when it does not exist.
func (s *Service) SectionContent(ctx context.Context, branch *compiler.Branch, recordID int64) (*Rendered, error) {
	sec, err := s.store.FindSectionByName(ctx, branch.Name)
	if err != nil && !model.IsNotFound(err) {
		return nil, err
	}

	if branch.IsForm() {
		html, err := s.FormHTML(ctx, branch)
		if err != nil {
			return nil, err
		}
		return &Rendered{Form: true, HTML: html}, nil
	}

	records := []*model.Record{}
	if sec != nil {
		records, err = s.store.ListRecords(ctx, querysql.ForSection(sec.ID, branch.Params, recordID))
		if err != nil {
			return nil, err
		}
	}

	if recordID != 0 && len(records) == 0 {
		return nil, model.NewNotFound("record", strconv.FormatInt(recordID, 10))
	}

	out := &Rendered{Records: make([]map[string]string, 0, len(records))}
	for _, rec := range records {
		rec.Section = sec
		out.Records = append(out.Records, s.RecordContent(ctx, rec, branch.Fields))
	}
	return out, nil
}

// RecordContent renders each field of rec through its directive, keyed by
// field token. Special fields (_id, _permalink, ...) are synthesized.
func (s *Service) RecordContent(ctx context.Context, rec *model.Record, fields map[string]*compiler.Field) map[string]string {
	out := make(map[string]string, len(fields))
	for token, field := range fields {
		params := field.Params
		var value any

		if special, ok := model.SpecialFields[field.Key]; ok {
			merged := special.Clone()
			for k, v := range field.Params {
				merged[k] = v
			}
			params = merged
			value = rec.SpecialValue(field.Key)
		} else {
			value = rec.Content[field.Key]
		}

		out[token] = s.directives.Find(params).Render(ctx, value)
	}
	return out
}
