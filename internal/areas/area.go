package areas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ReservedName is the output key used for page numbers; no Area may use it
const ReservedName = "pageNumber"

// FieldType tags the semantic meaning of an Area's values
type FieldType string

const (
	FieldDefault     FieldType = "default"
	FieldIdentifier  FieldType = "identifier"
	FieldX           FieldType = "x"
	FieldY           FieldType = "y"
	FieldElevation   FieldType = "elevation"
	FieldDate        FieldType = "date"
	FieldDepth       FieldType = "depth"
	FieldDepthFrom   FieldType = "depth_from"
	FieldDepthTo     FieldType = "depth_to"
	FieldDescription FieldType = "description"
	FieldCountPair   FieldType = "count_pair"
	FieldSample      FieldType = "sample"
	FieldWaterLevel  FieldType = "water_level"
)

// knownTypes lists every accepted field type; the value marks types that may
// appear on at most one Area
var knownTypes = map[FieldType]bool{
	FieldDefault:     false,
	FieldIdentifier:  true,
	FieldX:           true,
	FieldY:           true,
	FieldElevation:   true,
	FieldDate:        true,
	FieldDepth:       false,
	FieldDepthFrom:   false,
	FieldDepthTo:     false,
	FieldDescription: false,
	FieldCountPair:   false,
	FieldSample:      false,
	FieldWaterLevel:  false,
}

// Known reports whether t is one of the supported field types
func (t FieldType) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Unique reports whether at most one Area may carry t
func (t FieldType) Unique() bool {
	return knownTypes[t]
}

// Types returns all supported field types
func Types() []FieldType {
	return []FieldType{
		FieldDefault, FieldIdentifier, FieldX, FieldY, FieldElevation, FieldDate, FieldDepth,
		FieldDepthFrom, FieldDepthTo, FieldDescription, FieldCountPair, FieldSample, FieldWaterLevel,
	}
}

// Rect is a selection rectangle in display space
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area is a named, typed region of interest
type Area struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	Type      FieldType `json:"type"`
	Region    *Rect     `json:"region,omitempty"`
	Mandatory bool      `json:"mandatory"`
	Merge     bool      `json:"merge"`
	OCR       bool      `json:"ocr"`

	// Selected is UI state only and never influences extraction
	Selected bool `json:"selected,omitempty"`
}

// HasRegion reports whether a selection rectangle has been drawn
func (a Area) HasRegion() bool {
	return a.Region != nil
}

// Sentinel errors for area validation
var (
	ErrEmptyName     = errors.New("area name cannot be empty")
	ErrReservedName  = errors.New("area name is reserved")
	ErrDuplicateName = errors.New("area name already in use")
	ErrDuplicateType = errors.New("field type already assigned to another area")
	ErrUnknownType   = errors.New("unknown field type")
	ErrInvalidRegion = errors.New("region width and height must be non-negative")
	ErrNotFound      = errors.New("area not found")
)

// Validate checks a complete area list against all configuration invariants
func Validate(list []Area) error {
	names := make(map[string]bool, len(list))
	types := make(map[FieldType]string, len(list))

	for _, a := range list {
		if err := validateArea(a); err != nil {
			return err
		}

		if names[a.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, a.Name)
		}
		names[a.Name] = true

		t := normalizeType(a.Type)
		if t.Unique() {
			if other, taken := types[t]; taken {
				return fmt.Errorf("%w: %s is used by %q and %q", ErrDuplicateType, t, other, a.Name)
			}
			types[t] = a.Name
		}
	}

	return nil
}

func validateArea(a Area) error {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return ErrEmptyName
	}
	if name == ReservedName {
		return fmt.Errorf("%w: %q", ErrReservedName, a.Name)
	}
	if !normalizeType(a.Type).Known() {
		return fmt.Errorf("%w: %q", ErrUnknownType, a.Type)
	}
	if a.Region != nil && (a.Region.Width < 0 || a.Region.Height < 0) {
		return fmt.Errorf("%w: area %q", ErrInvalidRegion, a.Name)
	}
	return nil
}

// normalizeType maps the zero value to FieldDefault
func normalizeType(t FieldType) FieldType {
	if t == "" {
		return FieldDefault
	}
	return t
}

// FindByType returns the first area carrying the given field type
func FindByType(list []Area, t FieldType) (Area, bool) {
	for _, a := range list {
		if normalizeType(a.Type) == t {
			return a, true
		}
	}
	return Area{}, false
}
