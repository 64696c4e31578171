package resolve

import (
	"encoding/json"
	"sort"
)

// FieldDescriptor describes one declared field on an entity type.
type FieldDescriptor struct {
	Name        string `json:"name"`
	Proxied     bool   `json:"proxied"`
	Resolver    string `json:"resolver"`
	WantsRecord bool   `json:"wants_record,omitempty"`
}

// SchemaDocument summarises a descriptor's declared fields and behaviors.
type SchemaDocument struct {
	EntityType  string            `json:"entity_type"`
	HasPrimary  bool              `json:"has_primary"`
	HasFallback bool              `json:"has_fallback"`
	HasHook     bool              `json:"has_hook"`
	Fields      []FieldDescriptor `json:"fields"`
}

// Describe generates a schema document for the descriptor. Handy for
// debugging which fields are proxied and how they resolve.
func Describe(d *Descriptor) SchemaDocument {
	doc := SchemaDocument{
		Fields: []FieldDescriptor{},
	}
	if d == nil {
		return doc
	}
	doc.EntityType = d.entityType
	doc.HasPrimary = d.primary != nil
	doc.HasFallback = d.fallback != nil
	doc.HasHook = d.hook != nil

	names := make([]string, 0, len(d.fields))
	for name := range d.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		resolver, proxied := d.proxied[name]
		descriptor := FieldDescriptor{
			Name:    name,
			Proxied: proxied,
		}
		switch r := resolver.(type) {
		case nil:
			if proxied {
				descriptor.Resolver = engineMerge
			}
		case *expressionResolver:
			descriptor.Resolver = evaluatorEngineName(r.evaluator)
		case *recordExpressionResolver:
			descriptor.Resolver = evaluatorEngineName(r.evaluator)
			descriptor.WantsRecord = true
		default:
			descriptor.Resolver = "custom"
			_, descriptor.WantsRecord = resolver.(RecordResolver)
		}
		doc.Fields = append(doc.Fields, descriptor)
	}
	return doc
}

// ToJSON serialises the schema document.
func (d SchemaDocument) ToJSON() ([]byte, error) {
	return json.Marshal(d)
}
