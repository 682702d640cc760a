package model

import (
    "time"

    "gorm.io/datatypes"
)

// Project is a portfolio entry. Slug is the public lookup key and is unique
// across all rows. List-valued columns are stored as JSON so the schema is
// identical on MySQL and Postgres.
type Project struct {
    ID              uint64                      `gorm:"primaryKey;autoIncrement" json:"id"`
    Title           string                      `gorm:"type:text;not null" json:"title"`
    Slug            string                      `gorm:"size:191;not null;uniqueIndex" json:"slug"`
    Description     string                      `gorm:"type:text;not null" json:"description"`
    LongDescription *string                     `gorm:"type:text" json:"longDescription"`
    Image           string                      `gorm:"type:text;not null" json:"image"`
    DemoURL         *string                     `gorm:"column:demo_url;type:text" json:"demoUrl"`
    RepoURL         *string                     `gorm:"column:repo_url;type:text" json:"repoUrl"`
    Category        string                      `gorm:"size:64;not null;index" json:"category"`
    Technologies    datatypes.JSONSlice[string] `gorm:"not null" json:"technologies"`
    Features        datatypes.JSONSlice[string] `json:"features"`
    Screenshots     datatypes.JSONSlice[string] `json:"screenshots"`
    CreatedAt       time.Time                   `gorm:"not null" json:"createdAt"`
    FeaturedOrder   *string                     `gorm:"size:32" json:"featuredOrder"`
    Meta            datatypes.JSONMap           `json:"meta"`
}

func (Project) TableName() string { return "projects" }

// Clone returns a deep copy so callers can mutate the result without
// touching shared state.
func (p Project) Clone() Project {
    out := p
    out.LongDescription = cloneString(p.LongDescription)
    out.DemoURL = cloneString(p.DemoURL)
    out.RepoURL = cloneString(p.RepoURL)
    out.FeaturedOrder = cloneString(p.FeaturedOrder)
    if p.Technologies != nil {
        out.Technologies = append(datatypes.JSONSlice[string]{}, p.Technologies...)
    }
    if p.Features != nil {
        out.Features = append(datatypes.JSONSlice[string]{}, p.Features...)
    }
    if p.Screenshots != nil {
        out.Screenshots = append(datatypes.JSONSlice[string]{}, p.Screenshots...)
    }
    if p.Meta != nil {
        out.Meta = make(datatypes.JSONMap, len(p.Meta))
        for k, v := range p.Meta {
            out.Meta[k] = v
        }
    }
    return out
}

func cloneString(s *string) *string {
    if s == nil {
        return nil
    }
    v := *s
    return &v
}
