package models

const OriginalSize = "0"

type SizeConfig struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tinify bool   `json:"tinify"`
}

// SizeDefinition is a custom-registered rendition.
type SizeDefinition struct {
	Name   string `json:"name" yaml:"name"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Crop   bool   `json:"crop,omitempty" yaml:"crop"`
}
