package model

import (
	"fmt"

	"github.com/uptrace/bun"
)

// Place is a venue an event can point at through Event.PlaceID. The
// agenda core only needs the reference; full venue management lives in
// the dashboard backend.
type Place struct {
	bun.BaseModel `bun:"table:places"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Name     string `bun:"name,notnull" json:"name"`
	Town     string `bun:"town" json:"town,omitempty"`
	Province string `bun:"province" json:"province,omitempty"`
	Address  string `bun:"address" json:"address,omitempty"`
}

func (p *Place) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("(*Place).Validate: name is blank")
	}
	return nil
}
