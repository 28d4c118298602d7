package models

import (
	"fmt"
	"strings"
)

// SourceKind selects where a widget background or icon comes from.
type SourceKind int

const (
	SourceIcon SourceKind = iota
	SourceColor
	SourcePicture
)

func (k SourceKind) String() string {
	switch k {
	case SourceIcon:
		return "icon"
	case SourceColor:
		return "color"
	case SourcePicture:
		return "picture"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k SourceKind) Valid() bool {
	return k >= SourceIcon && k <= SourcePicture
}

// ParseSourceKind accepts the textual name or the numeric value of a kind.
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "icon", "0":
		return SourceIcon, nil
	case "color", "1":
		return SourceColor, nil
	case "picture", "2":
		return SourcePicture, nil
	default:
		return SourceIcon, fmt.Errorf("invalid source kind: %q", s)
	}
}

func (k SourceKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid source kind: %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *SourceKind) UnmarshalText(text []byte) error {
	parsed, err := ParseSourceKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// WidgetConfig is the persisted configuration of one placed widget instance.
// ID is assigned by the widget host. Empty strings mean "not set".
type WidgetConfig struct {
	ID               int        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	PackageName      string     `gorm:"column:package_name" json:"package_name,omitempty"`
	BackgroundPath   string     `gorm:"column:background_path" json:"background_path,omitempty"`
	IconPath         string     `gorm:"column:icon_path" json:"icon_path,omitempty"`
	BackgroundKind   SourceKind `gorm:"column:background_type" json:"background_kind"`
	IconKind         SourceKind `gorm:"column:icon_type" json:"icon_kind"`
	Radius           int        `json:"radius"`
	MarginHorizontal int        `json:"margin_horizontal"`
	MarginVertical   int        `json:"margin_vertical"`
	MarginIcon       int        `json:"margin_icon"`
	SourcePath       string     `gorm:"column:source_path" json:"source_path,omitempty"`
}

// TableName pins the table name used by the original schema.
func (WidgetConfig) TableName() string {
	return "widget"
}

// WidgetConfigRequest is the payload used to save a widget configuration.
// Saving is a full overwrite: omitted fields are stored as their zero value.
type WidgetConfigRequest struct {
	PackageName      string     `json:"package_name"`
	BackgroundPath   string     `json:"background_path"`
	IconPath         string     `json:"icon_path"`
	BackgroundKind   SourceKind `json:"background_kind"`
	IconKind         SourceKind `json:"icon_kind"`
	Radius           int        `json:"radius"`
	MarginHorizontal int        `json:"margin_horizontal"`
	MarginVertical   int        `json:"margin_vertical"`
	MarginIcon       int        `json:"margin_icon"`
	SourcePath       string     `json:"source_path"`
}

// Normalize trims whitespace from input fields
func (r *WidgetConfigRequest) Normalize() {
	r.PackageName = strings.TrimSpace(r.PackageName)
	r.BackgroundPath = strings.TrimSpace(r.BackgroundPath)
	r.IconPath = strings.TrimSpace(r.IconPath)
	r.SourcePath = strings.TrimSpace(r.SourcePath)
}

// Validate checks kinds and that pixel values are non-negative.
func (r *WidgetConfigRequest) Validate() error {
	if !r.BackgroundKind.Valid() {
		return fmt.Errorf("invalid background kind: %d", int(r.BackgroundKind))
	}
	if !r.IconKind.Valid() {
		return fmt.Errorf("invalid icon kind: %d", int(r.IconKind))
	}
	fields := []struct {
		name  string
		value int
	}{
		{"radius", r.Radius},
		{"margin_horizontal", r.MarginHorizontal},
		{"margin_vertical", r.MarginVertical},
		{"margin_icon", r.MarginIcon},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", f.name, f.value)
		}
	}
	return nil
}

// ToConfig builds the persisted row for widget id.
func (r WidgetConfigRequest) ToConfig(id int) WidgetConfig {
	return WidgetConfig{
		ID:               id,
		PackageName:      r.PackageName,
		BackgroundPath:   r.BackgroundPath,
		IconPath:         r.IconPath,
		BackgroundKind:   r.BackgroundKind,
		IconKind:         r.IconKind,
		Radius:           r.Radius,
		MarginHorizontal: r.MarginHorizontal,
		MarginVertical:   r.MarginVertical,
		MarginIcon:       r.MarginIcon,
		SourcePath:       r.SourcePath,
	}
}

// Defaults are the margins and radius used to pre-fill a new configuration session.
type Defaults struct {
	MarginHorizontal int `json:"margin_horizontal"`
	MarginVertical   int `json:"margin_vertical"`
	MarginIcon       int `json:"margin_icon"`
	Radius           int `json:"radius"`
}
