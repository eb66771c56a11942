package embedded

import (
	_ "embed"
)

// Embed preset data files
//
//go:embed data/presets/styles.yaml
var StylesYAML []byte

//go:embed data/presets/palette.yaml
var PaletteYAML []byte
