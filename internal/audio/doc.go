// Package audio plays a chime when a new message appears on screen.
// Sounds are configured per duration class and decoded with beep from WAV,
// OGG or MP3 files. Decoded sounds are cached and dropped again when the
// file changes on disk.
package audio
