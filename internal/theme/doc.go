// Package theme provides the palettes and pooled text styles used to draw
// on-screen messages. Palettes are loaded from
// ~/.config/onscreen/themes/<name>.toml, falling back to the embedded ones.
package theme
