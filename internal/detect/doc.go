// Package detect turns per-window peak volumes into the intervals of a
// recording worth keeping.
//
// A run samples the peak of every fixed-size window, labels each window
// silent or not, scans the labels for speech onsets and offsets, pads and
// filters the candidates, merges close neighbours twice (once while scanning,
// once over the finished list), and finally plans the numbered segments a
// renderer should produce. Everything except sampling is a pure function over
// in-memory slices; sampling goes through the WindowSampler interface so the
// package never touches media files itself.
package detect
