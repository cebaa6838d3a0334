// Package capture groups the audio sources a channel can be recorded from.
//
// Subpackages:
//   - httpstream: internet radio over plain HTTP(S)
//   - ffmpeg: any input ffmpeg can read, transcoded to MP3 on stdout
//   - segmentdir: files written by ffmpeg's segment muxer into a directory
package capture
