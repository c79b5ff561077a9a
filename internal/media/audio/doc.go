// Package audio picks the audio stream of a container that silence detection
// should listen to and clips should be cut from.
//
// Ranking: streams flagged as the default win, commentary and
// visually-impaired description tracks lose, then more channels win, and
// ties go to the earliest stream.
package audio
