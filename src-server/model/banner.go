package model

import (
	"github.com/uptrace/bun"
)

// Banner rows are written by the upload service; meetups only reference them.
type Banner struct {
	bun.BaseModel `bun:"table:banners"`

	ID   string `bun:"id,pk,notnull"`
	Path string `bun:"path,notnull"`
	URL  string `bun:"url"`
}
