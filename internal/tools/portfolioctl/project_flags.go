package portfolioctl

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/edwanmarques/portfolio/internal/client"
)

type fieldKind int

const (
	textField fieldKind = iota
	nullableField
	listField
	objectField
)

// projectField maps a command-line flag onto a JSON field of the project
// payload.
type projectField struct {
	flag, json, help string
	kind             fieldKind
}

var projectFields = []projectField{
	{"title", "title", "project title", textField},
	{"slug", "slug", "URL slug (derived from the title on create when empty)", textField},
	{"description", "description", "short description", textField},
	{"long-description", "longDescription", "long description; empty clears it", nullableField},
	{"image", "image", "cover image URL", textField},
	{"demo-url", "demoUrl", "live demo URL; empty clears it", nullableField},
	{"repo-url", "repoUrl", "repository URL; empty clears it", nullableField},
	{"category", "category", "category", textField},
	{"tech", "technologies", "comma-separated technologies", listField},
	{"features", "features", "comma-separated features", listField},
	{"screenshots", "screenshots", "comma-separated screenshot URLs", listField},
	{"featured-order", "featuredOrder", "featured ordering key; empty clears it", nullableField},
	{"meta", "meta", "JSON object replacing the metadata", objectField},
}

func bindProjectFlags(fs *flag.FlagSet) map[string]*string {
	vals := make(map[string]*string, len(projectFields))
	for _, f := range projectFields {
		vals[f.flag] = fs.String(f.flag, "", f.help)
	}
	return vals
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fieldValue(f projectField, raw string) (any, error) {
	switch f.kind {
	case nullableField:
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	case listField:
		return splitList(raw), nil
	case objectField:
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil || m == nil {
			return nil, fmt.Errorf("-%s must be a JSON object", f.flag)
		}
		return m, nil
	}
	return raw, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *runner) createProject(ctx context.Context, args []string) error {
	fs := newFlagSet("projects create", r.out)
	vals := bindProjectFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	in := client.ProjectInput{
		Title:           *vals["title"],
		Slug:            *vals["slug"],
		Description:     *vals["description"],
		LongDescription: optional(*vals["long-description"]),
		Image:           *vals["image"],
		DemoURL:         optional(*vals["demo-url"]),
		RepoURL:         optional(*vals["repo-url"]),
		Category:        *vals["category"],
		Technologies:    splitList(*vals["tech"]),
		FeaturedOrder:   optional(*vals["featured-order"]),
	}
	if v := *vals["features"]; v != "" {
		in.Features = splitList(v)
	}
	if v := *vals["screenshots"]; v != "" {
		in.Screenshots = splitList(v)
	}
	if v := *vals["meta"]; v != "" {
		m, err := fieldValue(projectField{flag: "meta", kind: objectField}, v)
		if err != nil {
			return err
		}
		in.Meta = m.(map[string]any)
	}
	if err := r.login(ctx); err != nil {
		return err
	}
	p, err := r.c.CreateProject(ctx, in)
	if err != nil {
		return err
	}
	return r.print(p)
}

// updateProject sends only the flags given on the command line, so the
// server keeps every other field as stored.
func (r *runner) updateProject(ctx context.Context, args []string) error {
	fs := newFlagSet("projects update", r.out)
	id := fs.Uint64("id", 0, "project id")
	vals := bindProjectFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return usageErr("projects update -id N")
	}

	byFlag := make(map[string]projectField, len(projectFields))
	for _, f := range projectFields {
		byFlag[f.flag] = f
	}
	fields := map[string]any{}
	var verr error
	fs.Visit(func(fl *flag.Flag) {
		f, ok := byFlag[fl.Name]
		if !ok || verr != nil {
			return
		}
		v, err := fieldValue(f, *vals[f.flag])
		if err != nil {
			verr = err
			return
		}
		fields[f.json] = v
	})
	if verr != nil {
		return verr
	}
	if len(fields) == 0 {
		return usageErr("projects update -id N with at least one field flag")
	}

	if err := r.login(ctx); err != nil {
		return err
	}
	p, err := r.c.UpdateProject(ctx, *id, fields)
	if err != nil {
		return err
	}
	return r.print(p)
}
