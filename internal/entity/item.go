package entity

import (
	"fmt"
	"github.com/gosimple/slug"
)

type Item struct {
	Registry Address `json:"registry"`
	ItemId   uint64  `json:"itemId"`
	Owner    Address `json:"owner"`
	Approved Address `json:"approved,omitempty"`
	TokenUri string  `json:"tokenUri"`
}

func (i Item) Slug() string {
	return CreateItemSlug(i.ItemId, i.Registry)
}

func CreateItemSlug(itemId uint64, registry Address) string {
	return slug.Make(fmt.Sprintf("item-%d-%s", itemId, registry))
}
