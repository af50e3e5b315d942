// Package audio holds the local half of the voice pipeline: PCM16 encoding and
// decoding, the text-safe transport encoding, fixed-size capture chunking and
// the gapless playback scheduler with its click-free gain ramp.
package audio
