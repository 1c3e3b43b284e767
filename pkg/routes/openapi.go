package routes

import (
	"strings"

	"github.com/JaimeStill/docai/pkg/openapi"
)

// Describe adds every documented route in groups to spec under basePath.
// Routes without OpenAPI metadata are skipped. Group tags apply to operations
// that declare none of their own and are registered on the spec with the
// group description.
func Describe(spec *openapi.Spec, basePath string, groups ...Group) {
	for _, group := range groups {
		describeGroup(spec, basePath, nil, group)
	}
}

func describeGroup(spec *openapi.Spec, parentPrefix string, parentTags []string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	tags := group.Tags
	if len(tags) == 0 {
		tags = parentTags
	}

	if group.Schemas != nil {
		spec.Components.AddSchemas(group.Schemas)
	}
	for _, tag := range group.Tags {
		spec.AddTag(tag, group.Description)
	}

	for _, route := range group.Routes {
		if route.OpenAPI == nil {
			continue
		}

		op := *route.OpenAPI
		if len(op.Tags) == 0 {
			op.Tags = tags
		}

		path := fullPrefix + route.Pattern
		if path == "" {
			path = "/"
		}

		item, ok := spec.Paths[path]
		if !ok {
			item = &openapi.PathItem{}
			spec.Paths[path] = item
		}

		switch strings.ToUpper(route.Method) {
		case "GET":
			item.Get = &op
		case "POST":
			item.Post = &op
		case "PUT":
			item.Put = &op
		case "PATCH":
			item.Patch = &op
		case "DELETE":
			item.Delete = &op
		}
	}

	for _, child := range group.Children {
		describeGroup(spec, fullPrefix, tags, child)
	}
}
