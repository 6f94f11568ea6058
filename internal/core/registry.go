package core

import (
	"fmt"
	"sort"
	"sync"
)

// RowVariant names one of the recognized column schemas.
type RowVariant string

const (
	WithoutFile      RowVariant = "WithoutFile"
	WithFile         RowVariant = "WithFile"
	WithFileAndToken RowVariant = "WithFileAndToken"
	WithToken        RowVariant = "WithToken"
)

// Column names shared by all variants.
const (
	ColumnID              = "ID"
	ColumnDescription     = "DESCRIPTION"
	ColumnTermsType       = "TERMS_AND_CONDITIONS TYPE"
	ColumnTermsParameters = "TERMS_AND_CONDITIONS PARAMETERS"

	ColumnFileName        = "FILE NAME"
	ColumnFileContentType = "FILE CONTENT TYPE"
	ColumnFileSize        = "FILE SIZE"
	ColumnFileHash        = "FILE HASH"

	ColumnRestricted = "RESTRICTED"

	ColumnTokenType     = "TOKEN TYPE"
	ColumnTokenID       = "TOKEN ID"
	ColumnTokenIssuance = "TOKEN ISSUANCE"
)

var (
	columnsWithoutFile = []string{ColumnID, ColumnDescription, ColumnTermsType, ColumnTermsParameters}
	fileColumns        = []string{ColumnFileName, ColumnFileContentType, ColumnFileSize, ColumnFileHash}
	tokenColumns       = []string{ColumnTokenType, ColumnTokenID, ColumnTokenIssuance}
)

// VariantSpec describes the required columns of a variant and which
// optional attribute groups its items carry.
type VariantSpec struct {
	Variant    RowVariant
	Columns    []string
	File       bool
	Token      bool
	Restricted bool
}

var (
	variants   = make(map[RowVariant]VariantSpec)
	variantsMu sync.RWMutex
)

func init() {
	RegisterVariant(VariantSpec{
		Variant: WithoutFile,
		Columns: concat(columnsWithoutFile),
	})
	RegisterVariant(VariantSpec{
		Variant: WithFile,
		Columns: concat(columnsWithoutFile, fileColumns),
		File:    true,
	})
	RegisterVariant(VariantSpec{
		Variant:    WithFileAndToken,
		Columns:    concat(columnsWithoutFile, fileColumns, []string{ColumnRestricted}, tokenColumns),
		File:       true,
		Token:      true,
		Restricted: true,
	})
	RegisterVariant(VariantSpec{
		Variant: WithToken,
		Columns: concat(columnsWithoutFile, tokenColumns),
		Token:   true,
	})
}

// RegisterVariant adds a variant to the registry.
// Panics if the variant is already registered.
func RegisterVariant(spec VariantSpec) {
	variantsMu.Lock()
	defer variantsMu.Unlock()

	if _, exists := variants[spec.Variant]; exists {
		panic(fmt.Sprintf("variant already registered: %s", spec.Variant))
	}
	variants[spec.Variant] = spec
}

// LookupVariant returns the spec of a registered variant.
func LookupVariant(v RowVariant) (VariantSpec, bool) {
	variantsMu.RLock()
	defer variantsMu.RUnlock()

	spec, ok := variants[v]
	return spec, ok
}

// Variants returns all registered variants ordered by column count ascending.
func Variants() []VariantSpec {
	variantsMu.RLock()
	defer variantsMu.RUnlock()

	result := make([]VariantSpec, 0, len(variants))
	for _, spec := range variants {
		result = append(result, spec)
	}
	sort.Slice(result, func(i, j int) bool {
		if len(result[i].Columns) != len(result[j].Columns) {
			return len(result[i].Columns) < len(result[j].Columns)
		}
		return result[i].Variant < result[j].Variant
	})
	return result
}

// Columns returns a copy of the variant's required columns in canonical order.
func (v RowVariant) Columns() []string {
	spec, ok := LookupVariant(v)
	if !ok {
		return nil
	}
	return concat(spec.Columns)
}

// HasFile reports whether items of this variant carry file attributes.
func (v RowVariant) HasFile() bool {
	spec, _ := LookupVariant(v)
	return spec.File
}

// HasToken reports whether items of this variant carry token attributes.
func (v RowVariant) HasToken() bool {
	spec, _ := LookupVariant(v)
	return spec.Token
}

// HasRestriction reports whether the variant carries the RESTRICTED column.
func (v RowVariant) HasRestriction() bool {
	spec, _ := LookupVariant(v)
	return spec.Restricted
}

func (v RowVariant) String() string {
	return string(v)
}

func concat(groups ...[]string) []string {
	var n int
	for _, g := range groups {
		n += len(g)
	}
	out := make([]string, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
