// Package display owns the set of on-screen messages. The Manager merges
// duplicates, enforces capacity, advances fading once per frame and hands
// slots, text and opacity to a Renderer.
package display
