package assets

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckassets/internal/models"
)

// Field is a patch value that tells "absent" apart from "null".
// Set is true whenever the key was present in the JSON body.
type Field[T any] struct {
	Set   bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	return json.Unmarshal(b, &f.Value)
}

// Set returns a Field holding v
func Set[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// CreateInput is the payload of Create
type CreateInput struct {
	CompanyID     *uint               `json:"companyId"`
	Code          string              `json:"code"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	CategoryID    *uint               `json:"categoryId"`
	SiteID        *uint               `json:"siteId"`
	AreaID        *uint               `json:"areaId"`
	ResponsibleID *uint               `json:"responsibleEmployeeId"`
	PurchaseDate  *time.Time          `json:"purchaseDate"`
	PurchaseValue decimal.NullDecimal `json:"purchaseValue"`
	CurrentValue  decimal.NullDecimal `json:"currentValue"`
	Status        models.AssetStatus  `json:"status"`
}

// UpdateInput is the payload of Update. Nil pointers and unset fields
// leave the stored value alone.
type UpdateInput struct {
	Code          *string                    `json:"code"`
	Name          *string                    `json:"name"`
	Description   *string                    `json:"description"`
	Status        *models.AssetStatus        `json:"status"`
	CategoryID    Field[*uint]               `json:"categoryId"`
	SiteID        Field[*uint]               `json:"siteId"`
	AreaID        Field[*uint]               `json:"areaId"`
	ResponsibleID Field[*uint]               `json:"responsibleEmployeeId"`
	PurchaseDate  Field[*time.Time]          `json:"purchaseDate"`
	PurchaseValue Field[decimal.NullDecimal] `json:"purchaseValue"`
	CurrentValue  Field[decimal.NullDecimal] `json:"currentValue"`
}

func (in UpdateInput) apply(a *models.Asset) {
	if in.Code != nil {
		a.Code = *in.Code
	}
	if in.Name != nil {
		a.Name = *in.Name
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.Status != nil {
		a.Status = *in.Status
	}
	if in.CategoryID.Set {
		a.CategoryID = in.CategoryID.Value
	}
	if in.SiteID.Set {
		a.SiteID = in.SiteID.Value
	}
	if in.AreaID.Set {
		a.AreaID = in.AreaID.Value
	}
	if in.ResponsibleID.Set {
		a.ResponsibleID = in.ResponsibleID.Value
	}
	if in.PurchaseDate.Set {
		a.PurchaseDate = in.PurchaseDate.Value
	}
	if in.PurchaseValue.Set {
		a.PurchaseValue = in.PurchaseValue.Value
	}
	if in.CurrentValue.Set {
		a.CurrentValue = in.CurrentValue.Value
	}
}

// ListFilter narrows List
type ListFilter struct {
	CompanyID  *uint
	SiteID     *uint
	CategoryID *uint
	Status     models.AssetStatus
}
